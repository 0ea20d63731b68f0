// Package cmd wires the busreg commands: the HTTP server and the terminal client.
package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"busreg-server-go/config"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "busreg",
	Short: "Student bus stop registration",
	Long: `busreg serves the bus stop registration API and provides a terminal
client for registering students and reviewing responses.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	defaults := config.Defaults()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./busreg.yaml)")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level,
		"log level: debug, info, warn or error")
}

// flagKeys maps command line flags onto configuration keys. Subcommands
// reuse flag names, so binding happens for the command actually run.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"addr":      "server.addr",
	"store":     "storage.backend",
	"seed":      "server.seed",
	"dev":       "log.dev",
	"server":    "client.base_url",
	"log-file":  "log.file",
	"page-size": "listing.page_size",
	"out":       "client.export_path",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	// A fresh instance per run keeps an earlier --config from leaking.
	v := viper.New()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
