package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSlotsCmd(configPath *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List available time slots for a date",
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
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.BookingAPITimeout)
			defer cancel()

			slots, err := api.AvailableSlots(ctx, strings.TrimSpace(date))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(slots) == 0 {
				fmt.Fprintf(out, "no time slots available on %s\n", date)
				return nil
			}
			for _, s := range slots {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to check, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
