package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/econbot/docsync/internal/config"
	"github.com/econbot/docsync/internal/docsync"
	"github.com/econbot/docsync/internal/utils"
	"github.com/econbot/docsync/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var rootCmd = &cobra.Command{
	Use:     "docsync",
	Short:   "Mirror a documents directory into a remote vector index",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		if err := setupLogging(cfg.LogFilePath()); err != nil {
			return err
		}

		manager, err := docsync.NewManager(cfg)
		if err != nil {
			return err
		}
		defer manager.Stop()

		defer slog.Info("Bye!")
		if err := manager.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("docsync", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("docs", "w", config.DefaultDocsDir, "Directory to watch for documents")
	rootCmd.Flags().StringP("datadir", "d", config.DefaultDataDir, "DocSync data directory (state, staging, logs)")
	rootCmd.Flags().StringP("server", "s", config.DefaultServerURL, "Vector index server URL")
	rootCmd.Flags().StringP("index", "n", config.DefaultIndexName, "Vector index name")
	rootCmd.Flags().Bool("sync-on-modify", false, "Also sync on in-place modification events")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "DocSync config file")
}

func main() {
	// the api key usually lives in a local .env rather than the shell
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red.Render("ERROR"), err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".docsync"))
		viper.AddConfigPath(filepath.Join(home, ".config/docsync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// subcommands only carry a subset of the root flags
	bindFlag := func(key, name string) {
		if f := cmd.Flags().Lookup(name); f != nil {
			viper.BindPFlag(key, f)
		}
	}
	bindFlag("docs_dir", "docs")
	bindFlag("data_dir", "datadir")
	bindFlag("server_url", "server")
	bindFlag("index_name", "index")
	bindFlag("sync_on_modify", "sync-on-modify")

	viper.SetEnvPrefix("DOCSYNC")
	viper.AutomaticEnv()

	viper.SetDefault("docs_dir", config.DefaultDocsDir)
	viper.SetDefault("data_dir", config.DefaultDataDir)
	viper.SetDefault("server_url", config.DefaultServerURL)
	viper.SetDefault("index_name", config.DefaultIndexName)
	viper.SetDefault("debounce", config.DefaultDebounce)
	viper.SetDefault("dwell", config.DefaultDwell)
	viper.SetDefault("allowed_exts", config.DefaultAllowedExts)

	return nil
}

func configFromViper() (*config.Config, error) {
	cfg := &config.Config{
		Path:         viper.ConfigFileUsed(),
		DocsDir:      viper.GetString("docs_dir"),
		DataDir:      viper.GetString("data_dir"),
		ServerURL:    viper.GetString("server_url"),
		APIKey:       viper.GetString("api_key"),
		IndexName:    viper.GetString("index_name"),
		AllowedExts:  viper.GetStringSlice("allowed_exts"),
		Debounce:     viper.GetDuration("debounce"),
		Dwell:        viper.GetDuration("dwell"),
		SyncOnModify: viper.GetBool("sync_on_modify"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(logFile string) error {
	if err := utils.EnsureParent(logFile); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	fileHandler := slog.NewTextHandler(utils.NewLogInterceptor(file), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stdoutHandler, fileHandler)))
	return nil
}
