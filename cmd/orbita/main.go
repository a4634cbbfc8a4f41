package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "orbita",
	Short: "A personal assistant that routes requests to email, budget and calendar helpers.",
	// Without a subcommand orbita starts a terminal chat.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-level", "info")

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("mode", "dev", `mode of the process, can be "prod" or "dev" or "demo"`)
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	for _, name := range []string{"config", "mode", "data", "driver", "dsn", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("orbita")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd, serveCmd, memoryCmd, calendarCmd, tokenCmd, versionCmd)
}

func initConfig() {
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config file %s: %v\n", file, err)
			os.Exit(1)
		}
	}
	setupLogger(viper.GetString("log-level"))
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// loadProfile builds the profile from flags, config file and environment.
func loadProfile() (*profile.Profile, error) {
	prof := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Addr:   viper.GetString("addr"),
		Port:   viper.GetInt("port"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	prof.FromEnv()
	prof.Version = version.GetCurrentVersion(prof.Mode)

	if err := viper.UnmarshalKey("router.rules", &prof.RouterRules); err != nil {
		return nil, fmt.Errorf("invalid router.rules: %w", err)
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetCurrentVersion(viper.GetString("mode")))
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
