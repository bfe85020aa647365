package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/waabox/testdeck/internal/client"
	"github.com/waabox/testdeck/internal/config"
	"github.com/waabox/testdeck/internal/tui"
)

func newDashboardCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, *configPath)
		},
	}
	cmd.Flags().String("server", "", "API base URL, overrides server.url")
	cmd.Flags().String("user", "", "name recorded on runs you trigger (default $USER)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	serverURL := cfg.Server.URL
	user := os.Getenv("USER")
	// The root command runs the dashboard too but does not define these flags.
	if f := cmd.Flags().Lookup("server"); f != nil && f.Value.String() != "" {
		serverURL = f.Value.String()
	}
	if f := cmd.Flags().Lookup("user"); f != nil && f.Value.String() != "" {
		user = f.Value.String()
	}
	if user == "" {
		user = "testdeck"
	}
	return tui.Run(client.New(serverURL), user)
}
