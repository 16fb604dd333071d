package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tablebook",
		Short: "Restaurant table booking form: web UI, terminal UI and one-shot commands",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: tablebook.yaml in . or ./config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newServerCmd(&configPath))
	root.AddCommand(newTUICmd(&configPath))
	root.AddCommand(newSlotsCmd(&configPath))
	root.AddCommand(newBookCmd(&configPath))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
