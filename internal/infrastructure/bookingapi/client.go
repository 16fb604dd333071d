package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/table-booking/internal/domain/booking"
)

const (
	endpointSlots  = "slots"
	endpointCreate = "create"

	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"

	maxErrBody = 512
)

// Recorder receives one observation per request to the booking service.
type Recorder interface {
	APIRequest(endpoint, result string, elapsed time.Duration)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS caps outbound requests per second. Zero or less disables the limit.
	RPS float64

	HTTPClient *http.Client
	Recorder   Recorder
	Logger     *zap.Logger
}

// Client talks to the restaurant booking service:
//
//	GET  /api/bookings?date=YYYY-MM-DD -> {"availableSlots": [...]}
//	POST /api/bookings                 -> {"success": bool, "booking": {...}, "message": "..."}
type Client struct {
	hc      *http.Client
	base    string
	limiter *rate.Limiter
	rec     Recorder
	log     *zap.Logger
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("bookingapi: base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("bookingapi: base url %q must be absolute http(s)", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		hc:      hc,
		base:    strings.TrimRight(u.String(), "/"),
		limiter: limiter,
		rec:     opts.Recorder,
		log:     log.Named("bookingapi"),
	}, nil
}

// AvailableSlots lists the bookable slot labels for date. A service that
// reports no slots yields an empty, non-nil slice.
func (c *Client) AvailableSlots(ctx context.Context, date string) (slots []string, err error) {
	if date == "" {
		return nil, ErrDateRequired
	}
	start := time.Now()
	defer func() { c.observe(endpointSlots, err, time.Since(start)) }()

	status, body, err := c.do(ctx, http.MethodGet, bookingsPath, url.Values{"date": {date}}, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: availability status %d: %s", ErrBadResponse, status, snippet(body))
	}

	var res slotsResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode availability: %v", ErrBadResponse, err)
	}
	c.log.Debug("slots fetched", zap.String("date", date), zap.Int("count", len(res.AvailableSlots)))
	return booking.CloneSlots(res.AvailableSlots), nil
}

// CreateBooking submits f as entered. A refusal by the service comes back as
// *booking.RejectedError carrying the service's message.
func (c *Client) CreateBooking(ctx context.Context, f booking.Form) (summary booking.Summary, err error) {
	start := time.Now()
	defer func() { c.observe(endpointCreate, err, time.Since(start)) }()

	payload, err := json.Marshal(f)
	if err != nil {
		return booking.Summary{}, fmt.Errorf("%w: encode booking: %v", ErrBadResponse, err)
	}
	status, body, err := c.do(ctx, http.MethodPost, bookingsPath, nil, payload)
	if err != nil {
		return booking.Summary{}, err
	}

	// The service may pair success=false with a 4xx, so the body decides.
	var res createResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return booking.Summary{}, fmt.Errorf("%w: create status %d: %s", ErrBadResponse, status, snippet(body))
	}
	if !res.Success {
		if res.Message == "" {
			return booking.Summary{}, fmt.Errorf("%w: rejection without message (status %d)", ErrBadResponse, status)
		}
		return booking.Summary{}, &booking.RejectedError{Message: res.Message}
	}
	if res.Booking == nil {
		return booking.Summary{}, fmt.Errorf("%w: success without booking (status %d)", ErrBadResponse, status)
	}
	return res.Booking.summary(), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	rawURL := c.base + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrBadResponse, err)
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	return res.StatusCode, b, nil
}

func (c *Client) observe(endpoint string, err error, elapsed time.Duration) {
	result := resultOK
	var rej *booking.RejectedError
	switch {
	case err == nil:
	case errors.As(err, &rej):
		result = resultRejected
	default:
		result = resultError
		c.log.Warn("booking service request failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	if c.rec != nil {
		c.rec.APIRequest(endpoint, result, elapsed)
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrBody {
		s = s[:maxErrBody] + "..."
	}
	return s
}
