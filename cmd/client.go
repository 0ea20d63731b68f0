package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"busreg-server-go/client"
	"busreg-server-go/config"
	"busreg-server-go/logging"
	"busreg-server-go/tui"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Open the student registration form",
	RunE: func(*cobra.Command, []string) error {
		return runClient(func(api *client.Client, log *zap.Logger) tea.Model {
			return tui.NewForm(api, log, cfg.Autocomplete.Limit)
		})
	},
}

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Browse registered students and export them to Excel",
	RunE: func(*cobra.Command, []string) error {
		return runClient(func(api *client.Client, log *zap.Logger) tea.Model {
			return tui.NewListing(api, log, cfg.Listing.PageSize, cfg.Client.ExportPath)
		})
	},
}

func init() {
	defaults := config.Defaults()

	for _, c := range []*cobra.Command{registerCmd, responsesCmd} {
		c.Flags().String("server", defaults.Client.BaseURL, "base URL of the registration API")
		c.Flags().String("log-file", defaults.Log.File, "client log file")
	}
	responsesCmd.Flags().Int("page-size", defaults.Listing.PageSize, "students per page")
	responsesCmd.Flags().StringP("out", "o", defaults.Client.ExportPath, "export destination")

	rootCmd.AddCommand(registerCmd, responsesCmd)
}

func runClient(build func(api *client.Client, log *zap.Logger) tea.Model) error {
	log, err := logging.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	api := client.New(cfg.Client.BaseURL, cfg.Client.Timeout)
	log.Info("client starting", zap.String("server", cfg.Client.BaseURL))

	if _, err := tea.NewProgram(build(api, log), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
