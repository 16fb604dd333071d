// Package bookingapitest runs an in-memory booking service on httptest for
// tests of packages that talk to it.
package bookingapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/example/table-booking/internal/domain/booking"
)

// MsgSlotTaken is returned when the requested slot is not offered for the date.
const MsgSlotTaken = "Slot no longer available"

type Service struct {
	srv *httptest.Server

	mu sync.Mutex

	slots        map[string][]string
	gates        map[string]chan struct{}
	reject       string
	brokenSlots  bool
	brokenCreate bool
	slotRequests []string
	bookings     []booking.Form
}

func New() *Service {
	s := &Service{
		slots: map[string][]string{},
		gates: map[string]chan struct{}{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/bookings", s.handle)
	s.srv = httptest.NewServer(mux)
	return s
}

func (s *Service) URL() string { return s.srv.URL }

func (s *Service) Close() {
	s.mu.Lock()
	for date, g := range s.gates {
		close(g)
		delete(s.gates, date)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// SetSlots replaces the availability for date.
func (s *Service) SetSlots(date string, slots ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[date] = append([]string(nil), slots...)
}

// Hold makes availability requests for date block until the returned release
// func is called or the client gives up.
func (s *Service) Hold(date string) (release func()) {
	g := make(chan struct{})
	s.mu.Lock()
	s.gates[date] = g
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gates[date] == g {
			delete(s.gates, date)
			close(g)
		}
	}
}

// RejectWith makes every booking fail with message. An empty message restores
// normal behaviour.
func (s *Service) RejectWith(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = message
}

// BreakSlots makes availability respond with a body that is not JSON.
func (s *Service) BreakSlots(broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenSlots = broken
}

// BreakCreate makes booking respond with a body that is not JSON.
func (s *Service) BreakCreate(broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenCreate = broken
}

// SlotRequests lists the dates availability was requested for, in arrival order.
func (s *Service) SlotRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.slotRequests...)
}

// Bookings lists the accepted bookings.
func (s *Service) Bookings() []booking.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking.Form(nil), s.bookings...)
}

func (s *Service) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSlots(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Service) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	s.mu.Lock()
	s.slotRequests = append(s.slotRequests, date)
	gate := s.gates[date]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	broken := s.brokenSlots
	slots := append([]string{}, s.slots[date]...)
	s.mu.Unlock()

	if broken {
		w.Header().Set("content-type", "text/html")
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"availableSlots": slots})
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var f booking.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.brokenCreate {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
		return
	}
	if s.reject != "" {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": s.reject})
		return
	}

	avail := s.slots[f.Date]
	i := booking.IndexOfSlot(avail, f.Time)
	if i < 0 {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": MsgSlotTaken})
		return
	}
	s.slots[f.Date] = append(avail[:i:i], avail[i+1:]...)
	s.bookings = append(s.bookings, f)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"booking": booking.Summary(f),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
