package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/table-booking/internal/application/form"
	"github.com/example/table-booking/internal/domain/booking"
	"github.com/example/table-booking/internal/infrastructure/bookingapi"
)

// SlotLister backs the JSON availability endpoint.
type SlotLister interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
}

type Options struct {
	Sessions *SessionManager
	Forms    *Registry
	Slots    SlotLister
	Logger   *zap.Logger

	// Metrics and Gatherer are optional; /metrics is served only with a Gatherer.
	Metrics  HTTPRecorder
	Gatherer prometheus.Gatherer

	// AwaitTimeout bounds how long a POST waits for a date's slots or a submission.
	AwaitTimeout time.Duration
}

type Server struct {
	sessions *SessionManager
	forms    *Registry
	slots    SlotLister
	log      *zap.Logger
	metrics  HTTPRecorder
	gatherer prometheus.Gatherer
	tmpl     *template.Template
	await    time.Duration
}

func New(opts Options) (*Server, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AwaitTimeout <= 0 {
		opts.AwaitTimeout = 10 * time.Second
	}
	return &Server{
		sessions: opts.Sessions,
		forms:    opts.Forms,
		slots:    opts.Slots,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		tmpl:     tmpl,
		await:    opts.AwaitTimeout,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog(s.log, s.metrics))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/", s.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleFormPost).Methods(http.MethodPost)
	r.HandleFunc("/slots", s.handleSlots).Methods(http.MethodGet)
	return r
}

// Start serves h on addr until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// controllerFor returns the session's form, starting a new session when the
// cookie is missing, unreadable or points at a session the janitor dropped.
func (s *Server) controllerFor(w http.ResponseWriter, r *http.Request) (*form.Controller, error) {
	if id, ok := s.sessions.ID(r); ok {
		if ctrl, ok := s.forms.Get(id); ok {
			return ctrl, nil
		}
	}
	id, ctrl := s.forms.Create()
	if err := s.sessions.SetID(w, r, id); err != nil {
		return nil, err
	}
	return ctrl, nil
}

type fieldView struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

type pageData struct {
	Title     string
	Fields    []fieldView
	Date      string
	Time      string
	TimeError string
	Slots     []string
	SlotError string
	Summary   *booking.Summary
	Notice    string
}

var inputs = []struct {
	field booking.Field
	label string
	typ   string
}{
	{booking.FieldName, "Name", "text"},
	{booking.FieldContact, "Contact", "tel"},
	{booking.FieldDate, "Date", "date"},
	{booking.FieldGuests, "Guests", "number"},
}

func newPageData(st form.State, notice string) pageData {
	d := pageData{
		Title:     "Book a table",
		Date:      st.Form.Date,
		Time:      st.Form.Time,
		TimeError: st.Errors[booking.FieldTime],
		Slots:     st.Slots,
		SlotError: st.SlotError,
		Summary:   st.Summary,
		Notice:    notice,
	}
	for _, in := range inputs {
		d.Fields = append(d.Fields, fieldView{
			Name:  string(in.field),
			Label: in.label,
			Type:  in.typ,
			Value: st.Form.Get(in.field),
			Error: st.Errors[in.field],
		})
	}
	return d
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controllerFor(w, r)
	if err != nil {
		s.log.Error("session cookie", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	st := ctrl.State()
	s.render(w, newPageData(st, ctrl.TakeNotice()))
}

func (s *Server) handleFormPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctrl, err := s.controllerFor(w, r)
	if err != nil {
		s.log.Error("session cookie", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	for _, in := range inputs {
		if _, ok := r.PostForm[string(in.field)]; !ok {
			continue
		}
		if err := ctrl.SetField(in.field, r.PostForm.Get(string(in.field))); err != nil {
			s.log.Warn("set field", zap.String("field", string(in.field)), zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.await)
	defer cancel()

	if r.PostForm.Get("action") == "refresh" {
		ctrl.RefreshSlots()
	}
	if err := ctrl.AwaitSlots(ctx); err != nil {
		s.log.Warn("slots still loading", zap.Error(err))
	}

	if slot := r.PostForm.Get("slot"); slot != "" {
		if err := ctrl.SelectSlot(slot); err != nil {
			s.log.Debug("slot not offered", zap.String("slot", slot), zap.Error(err))
		}
	}

	if r.PostForm.Get("action") == "book" {
		out := ctrl.Submit(ctx)
		s.log.Info("booking submitted", zap.String("status", string(out.Status)))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type slotsResponse struct {
	AvailableSlots []string `json:"availableSlots"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: booking.MsgDateRequired})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.await)
	defer cancel()

	slots, err := s.slots.AvailableSlots(ctx, date)
	if err != nil {
		s.log.Warn("slots lookup failed", zap.String("date", date), zap.Error(err))
		code := http.StatusBadGateway
		if errors.Is(err, bookingapi.ErrDateRequired) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, errorResponse{Message: form.MsgSlotsUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{AvailableSlots: slots})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.log.Error("render", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
