package form

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/example/table-booking/internal/domain/booking"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newController(t *testing.T, svc Service, opts ...Option) *Controller {
	t.Helper()
	c := New(svc, opts...)
	t.Cleanup(c.Close)
	return c
}

func await(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.AwaitSlots(ctx))
}

func fill(t *testing.T, c *Controller, f booking.Form) {
	t.Helper()
	for _, field := range booking.Fields {
		if field == booking.FieldTime {
			continue
		}
		require.NoError(t, c.SetField(field, f.Get(field)))
	}
	await(t, c)
	if f.Time != "" {
		require.NoError(t, c.SelectSlot(f.Time))
	}
}

var alice = booking.Form{Name: "Alice", Contact: "1234567890", Date: "2024-05-01", Time: "18:00", Guests: "2"}

func TestNewControllerStartsEmpty(t *testing.T) {
	c := newController(t, newStub())
	st := c.State()
	assert.True(t, st.Form.IsZero())
	assert.Empty(t, st.Errors)
	assert.Empty(t, st.Slots)
	assert.Nil(t, st.Summary)
	assert.Empty(t, st.Notice)
}

func TestSetFieldTouchesOnlyThatField(t *testing.T) {
	svc := newStub()
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldName, "Bob"))
	require.NoError(t, c.SetField(booking.FieldGuests, "4"))

	st := c.State()
	assert.Equal(t, booking.Form{Name: "Bob", Guests: "4"}, st.Form)
	assert.Empty(t, svc.requests(), "only a date change fetches availability")
}

func TestSetFieldUnknown(t *testing.T) {
	c := newController(t, newStub())
	err := c.SetField(booking.Field("email"), "a@b.c")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.True(t, c.State().Form.IsZero())
}

func TestDateChangeFetchesSlots(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00", "18:30")
	svc.setSlots("2024-05-02", "19:00")
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)
	assert.Equal(t, []string{"18:00", "18:30"}, c.State().Slots)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-02"))
	await(t, c)
	assert.Equal(t, []string{"19:00"}, c.State().Slots)
	assert.Equal(t, []string{"2024-05-01", "2024-05-02"}, svc.requests())
}

func TestSameDateDoesNotRefetch(t *testing.T) {
	svc := newStub()
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)

	assert.Equal(t, []string{"2024-05-01"}, svc.requests())
}

func TestEmptyDateDoesNotFetch(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)
	require.NoError(t, c.SetField(booking.FieldDate, ""))
	await(t, c)

	assert.Equal(t, []string{"2024-05-01"}, svc.requests())
	assert.Equal(t, []string{"18:00"}, c.State().Slots, "slot list is not cleared with the date")
}

func TestNewerDateCancelsOlderFetch(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	svc.setSlots("2024-05-02", "20:00")
	release := svc.hold("2024-05-01")
	defer release()

	rec := newCountingRecorder()
	c := newController(t, svc, WithRecorder(rec))

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	require.Eventually(t, func() bool { return len(svc.requests()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-02"))
	await(t, c)

	assert.Equal(t, []string{"20:00"}, c.State().Slots)
	require.Eventually(t, func() bool { return rec.fetchCount(FetchStale) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, rec.fetchCount(FetchOK))
}

func TestLateResponseForOldDateIsDropped(t *testing.T) {
	svc := newStub()
	svc.deaf = true
	svc.setSlots("2024-05-01", "18:00")
	svc.setSlots("2024-05-02", "20:00")
	release := svc.hold("2024-05-01")
	defer release()

	rec := newCountingRecorder()
	c := newController(t, svc, WithRecorder(rec))

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	require.Eventually(t, func() bool { return len(svc.requests()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-02"))
	await(t, c)
	require.Equal(t, []string{"20:00"}, c.State().Slots)

	release()
	require.Eventually(t, func() bool { return rec.fetchCount(FetchStale) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"20:00"}, c.State().Slots)
}

func TestFetchFailureKeepsPreviousSlots(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)

	svc.setSlotErr(errors.New("connection refused"))
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-02"))
	await(t, c)

	st := c.State()
	assert.Equal(t, []string{"18:00"}, st.Slots)
	assert.Equal(t, MsgSlotsUnavailable, st.SlotError)
	assert.Equal(t, "2024-05-02", st.Form.Date)

	svc.setSlotErr(nil)
	svc.setSlots("2024-05-02", "21:00")
	c.RefreshSlots()
	await(t, c)

	st = c.State()
	assert.Equal(t, []string{"21:00"}, st.Slots)
	assert.Empty(t, st.SlotError)
}

func TestSelectSlot(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00", "18:30")
	c := newController(t, svc)
	require.NoError(t, c.SetField(booking.FieldName, "Alice"))
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	await(t, c)

	before := c.State()
	require.NoError(t, c.SelectSlot("18:30"))
	after := c.State()

	want := before.Form
	want.Time = "18:30"
	assert.Equal(t, want, after.Form)
	assert.True(t, after.SlotSelected("18:30"))
	if diff := cmp.Diff(before.Slots, after.Slots); diff != "" {
		t.Fatalf("slots changed (-before +after):\n%s", diff)
	}

	err := c.SelectSlot("23:00")
	assert.ErrorIs(t, err, ErrUnknownSlot)
	assert.Equal(t, "18:30", c.State().Form.Time)
}

func TestSubmitInvalidLeavesFormUntouched(t *testing.T) {
	svc := newStub()
	rec := newCountingRecorder()
	c := newController(t, svc, WithRecorder(rec))
	require.NoError(t, c.SetField(booking.FieldContact, "123"))
	require.NoError(t, c.SetField(booking.FieldGuests, "0"))

	out := c.Submit(context.Background())

	assert.Equal(t, StatusInvalid, out.Status)
	assert.Equal(t, booking.Errors{
		booking.FieldName:    booking.MsgNameRequired,
		booking.FieldContact: booking.MsgContactFormat,
		booking.FieldDate:    booking.MsgDateRequired,
		booking.FieldTime:    booking.MsgTimeRequired,
		booking.FieldGuests:  booking.MsgGuestsInvalid,
	}, out.Errors)

	st := c.State()
	assert.Equal(t, booking.Form{Contact: "123", Guests: "0"}, st.Form)
	assert.Equal(t, out.Errors, st.Errors)
	assert.Nil(t, st.Summary)
	assert.Empty(t, st.Notice)
	assert.Empty(t, svc.bookings())
	assert.Equal(t, 1, rec.submissionCount(string(StatusInvalid)))
}

func TestErrorsAreNotLive(t *testing.T) {
	c := newController(t, newStub())
	c.Submit(context.Background())
	require.True(t, c.State().Errors.Has(booking.FieldName))

	require.NoError(t, c.SetField(booking.FieldName, "Alice"))
	assert.True(t, c.State().Errors.Has(booking.FieldName), "errors wait for the next validation pass")

	c.Submit(context.Background())
	assert.False(t, c.State().Errors.Has(booking.FieldName))
}

func TestSubmitConfirmed(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00", "19:00")
	rec := newCountingRecorder()
	c := newController(t, svc, WithRecorder(rec))
	fill(t, c, alice)

	out := c.Submit(context.Background())

	want := booking.Summary(alice)
	require.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, want, out.Summary)

	st := c.State()
	require.NotNil(t, st.Summary)
	assert.Equal(t, want, *st.Summary)
	assert.Equal(t, booking.Form{}, st.Form)
	assert.Empty(t, st.Errors)
	assert.Equal(t, []string{"18:00", "19:00"}, st.Slots, "slot list is left as-is")
	assert.Equal(t, []booking.Form{alice}, svc.bookings())
	assert.Equal(t, 1, rec.submissionCount(string(StatusConfirmed)))
}

func TestSummaryComesFromService(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	svc.create = func(f booking.Form) (booking.Summary, error) {
		s := booking.Summary(f)
		s.Name = "ALICE"
		return s, nil
	}
	c := newController(t, svc)
	fill(t, c, alice)

	c.Submit(context.Background())
	assert.Equal(t, "ALICE", c.State().Summary.Name)
}

func TestSummarySurvivesEditsUntilNextConfirmation(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00", "19:00")
	c := newController(t, svc)
	fill(t, c, alice)
	c.Submit(context.Background())

	require.NoError(t, c.SetField(booking.FieldName, "Bob"))
	assert.Equal(t, "Alice", c.State().Summary.Name)

	bob := booking.Form{Name: "Bob", Contact: "0987654321", Date: "2024-05-01", Time: "19:00", Guests: "3"}
	fill(t, c, bob)
	out := c.Submit(context.Background())
	require.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, booking.Summary(bob), *c.State().Summary)
}

func TestSubmitRejected(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)
	fill(t, c, alice)

	svc.create = func(booking.Form) (booking.Summary, error) {
		return booking.Summary{}, &booking.RejectedError{Message: "Slot no longer available"}
	}
	out := c.Submit(context.Background())

	assert.Equal(t, StatusRejected, out.Status)
	assert.Equal(t, "Slot no longer available", out.Message)

	st := c.State()
	assert.Equal(t, alice, st.Form)
	assert.Nil(t, st.Summary)
	assert.Equal(t, "Slot no longer available", st.Notice)

	assert.Equal(t, "Slot no longer available", c.TakeNotice())
	assert.Empty(t, c.TakeNotice())
}

func TestSubmitRejectedThroughWrappedError(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)
	fill(t, c, alice)

	svc.create = func(booking.Form) (booking.Summary, error) {
		return booking.Summary{}, fmt.Errorf("create: %w", &booking.RejectedError{Message: "Fully booked"})
	}
	out := c.Submit(context.Background())

	assert.Equal(t, StatusRejected, out.Status)
	assert.Equal(t, "Fully booked", c.TakeNotice())
}

func TestSubmitRejectedKeepsEarlierSummary(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)
	fill(t, c, alice)
	c.Submit(context.Background())

	fill(t, c, alice)
	svc.create = func(booking.Form) (booking.Summary, error) {
		return booking.Summary{}, &booking.RejectedError{Message: "Fully booked"}
	}
	c.Submit(context.Background())

	st := c.State()
	require.NotNil(t, st.Summary)
	assert.Equal(t, booking.Summary(alice), *st.Summary)
	assert.Equal(t, alice, st.Form)
}

func TestSubmitTransportFailure(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	rec := newCountingRecorder()
	c := newController(t, svc, WithRecorder(rec))
	fill(t, c, alice)

	svc.create = func(booking.Form) (booking.Summary, error) {
		return booking.Summary{}, errors.New("dial tcp 127.0.0.1:8080: connection refused")
	}
	out := c.Submit(context.Background())

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, MsgServiceUnavailable, out.Message)
	st := c.State()
	assert.Equal(t, alice, st.Form)
	assert.Nil(t, st.Summary)
	assert.Equal(t, MsgServiceUnavailable, st.Notice)
	assert.Equal(t, 1, rec.submissionCount(string(StatusFailed)))
}

func TestStateIsACopy(t *testing.T) {
	svc := newStub()
	svc.setSlots("2024-05-01", "18:00")
	c := newController(t, svc)
	fill(t, c, alice)
	c.Submit(context.Background())

	st := c.State()
	st.Slots[0] = "mutated"
	st.Errors[booking.FieldName] = "mutated"
	st.Summary.Name = "mutated"

	again := c.State()
	assert.Equal(t, "18:00", again.Slots[0])
	assert.Empty(t, again.Errors)
	assert.Equal(t, "Alice", again.Summary.Name)
}

func TestCloseCancelsInFlightFetch(t *testing.T) {
	svc := newStub()
	release := svc.hold("2024-05-01")
	defer release()

	c := New(svc)
	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	require.Eventually(t, func() bool { return len(svc.requests()) == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-02"))
	assert.Equal(t, []string{"2024-05-01"}, svc.requests(), "closed controller does not fetch")
}

func TestAwaitSlotsHonoursContext(t *testing.T) {
	svc := newStub()
	release := svc.hold("2024-05-01")
	defer release()
	c := newController(t, svc)

	require.NoError(t, c.SetField(booking.FieldDate, "2024-05-01"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AwaitSlots(ctx), context.DeadlineExceeded)
}
