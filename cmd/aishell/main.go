// Package main provides the aishell CLI entry point.
// aishell authenticates against Google, loads per-project remote settings and
// activates local skills for the model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aishell/internal/config"
	"aishell/internal/logger"
)

var (
	logLevel   string
	logFile    string
	authType   string
	silentAuth bool

	v   *viper.Viper
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aishell",
	Short: "aishell - Gemini-backed assistant shell",
	Long: `aishell authenticates with Google, loads remote project settings and
manages skills that extend the assistant's instructions.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&logFile, config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.StringVar(&authType, config.KeyAuthType, "", "Authentication strategy (oauth-personal|gemini-api-key|vertex-ai|cloud-shell|compute-default-credentials)")
	flags.BoolVar(&silentAuth, config.KeySilentAuth, false, "Never prompt during authentication")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	configDir, err := config.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving config directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(filepath.Join(configDir, ".env"), ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}

	v = config.NewViper(configDir)
	for _, key := range []string{config.KeyLogLevel, config.KeyLogFile, config.KeyAuthType, config.KeySilentAuth} {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}

	cfg, err = config.Load(v, configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("Configuration loaded", "config_dir", configDir, "auth_type", cfg.AuthType)
}
