package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/table-booking/internal/application/form"
	"github.com/example/table-booking/internal/infrastructure/bookingapi"
	"github.com/example/table-booking/internal/interfaces/tui"
)

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Fill in the booking form in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			api, err := quietClient(a)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			ctrl := form.New(api)
			defer ctrl.Close()
			return tui.Run(ctx, ctrl, a.cfg.BookingAPITimeout)
		},
	}
}

// quietClient builds a booking client that logs nothing, since the terminal
// belongs to the form while it runs. a keeps its own logger.
func quietClient(a *app) (*bookingapi.Client, error) {
	quiet := *a
	quiet.log = zap.NewNop()
	return quiet.bookingClient(nil)
}
