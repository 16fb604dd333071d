package form

import (
	"context"
	"sync"

	"github.com/example/table-booking/internal/domain/booking"
)

type stubService struct {
	mu sync.Mutex

	slots   map[string][]string
	slotErr error
	gates   map[string]chan struct{}
	// deaf fetches ignore cancellation and only return once released.
	deaf bool

	slotRequests []string

	create  func(booking.Form) (booking.Summary, error)
	created []booking.Form
}

func newStub() *stubService {
	return &stubService{
		slots: map[string][]string{},
		gates: map[string]chan struct{}{},
		create: func(f booking.Form) (booking.Summary, error) {
			return booking.Summary(f), nil
		},
	}
}

func (s *stubService) setSlots(date string, slots ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[date] = slots
}

func (s *stubService) setSlotErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotErr = err
}

func (s *stubService) hold(date string) func() {
	g := make(chan struct{})
	s.mu.Lock()
	s.gates[date] = g
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(g) }) }
}

func (s *stubService) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.slotRequests...)
}

func (s *stubService) bookings() []booking.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking.Form(nil), s.created...)
}

func (s *stubService) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	s.mu.Lock()
	s.slotRequests = append(s.slotRequests, date)
	gate := s.gates[date]
	deaf := s.deaf
	s.mu.Unlock()

	if gate != nil {
		if deaf {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotErr != nil {
		return nil, s.slotErr
	}
	return append([]string{}, s.slots[date]...), nil
}

func (s *stubService) CreateBooking(_ context.Context, f booking.Form) (booking.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, err := s.create(f)
	if err == nil {
		s.created = append(s.created, f)
	}
	return sum, err
}

type countingRecorder struct {
	mu          sync.Mutex
	fetches     map[string]int
	submissions map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{fetches: map[string]int{}, submissions: map[string]int{}}
}

func (r *countingRecorder) SlotFetch(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[result]++
}

func (r *countingRecorder) Submission(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[status]++
}

func (r *countingRecorder) fetchCount(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches[result]
}

func (r *countingRecorder) submissionCount(status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submissions[status]
}
