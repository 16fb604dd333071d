package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/table-booking/internal/infrastructure/bookingapi"
	"github.com/example/table-booking/internal/infrastructure/config"
	"github.com/example/table-booking/internal/infrastructure/logging"
)

// app is what every subcommand that talks to the booking service needs.
type app struct {
	cfg config.Config
	log *zap.Logger
}

func loadApp(configPath string) (*app, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) bookingClient(rec bookingapi.Recorder) (*bookingapi.Client, error) {
	return bookingapi.New(bookingapi.Options{
		BaseURL:  a.cfg.BookingAPIURL,
		Timeout:  a.cfg.BookingAPITimeout,
		RPS:      a.cfg.BookingAPIRPS,
		Recorder: rec,
		Logger:   a.log,
	})
}

func (a *app) close() { _ = a.log.Sync() }
