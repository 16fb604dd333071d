package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/table-booking/internal/application/form"
	"github.com/example/table-booking/internal/domain/booking"
)

var errNotBooked = errors.New("booking not made")

func newBookCmd(configPath *string) *cobra.Command {
	var f booking.Form

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Validate and submit a single booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			api, err := a.bookingClient(nil)
			if err != nil {
				return err
			}
			if errs := booking.Validate(f); !errs.Empty() {
				for _, field := range booking.Fields {
					if msg := errs[field]; msg != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
					}
				}
				return fmt.Errorf("%w: invalid form", errNotBooked)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.BookingAPITimeout)
			defer cancel()
			s, err := api.CreateBooking(ctx, f)
			var rej *booking.RejectedError
			switch {
			case errors.As(err, &rej):
				return fmt.Errorf("%w: %s", errNotBooked, rej.Message)
			case err != nil:
				a.log.Warn("booking submit failed", zap.Error(err))
				return fmt.Errorf("%w: %s", errNotBooked, form.MsgServiceUnavailable)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Booking confirmed")
			fmt.Fprintf(w, "  Name:    %s\n  Contact: %s\n  Date:    %s\n  Time:    %s\n  Guests:  %s\n",
				s.Name, s.Contact, s.Date, s.Time, s.Guests)
			return nil
		},
	}
	cmd.SilenceUsage = true

	fl := cmd.Flags()
	fl.StringVar(&f.Name, "name", "", "guest name")
	fl.StringVar(&f.Contact, "contact", "", "10-digit contact number")
	fl.StringVar(&f.Date, "date", "", "date, YYYY-MM-DD")
	fl.StringVar(&f.Time, "time", "", "time slot, as listed by the slots command")
	fl.StringVar(&f.Guests, "guests", "", "number of guests")
	return cmd
}
