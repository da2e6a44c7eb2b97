package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zaqqye/feedhub_v1/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "feedhub",
	Short: "FeedHub: live classroom feedback from the terminal",
	Long: `FeedHub lets a teacher open a room with a 6-digit PIN, students join it,
and once the teacher starts the activity every student sends a 1-10 rating
with a comment that shows up live on the teacher's dashboard.

Teacher: feedhub host, then feedhub dashboard --pin <PIN>
Student: feedhub join <PIN> --name <name>`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env (non-fatal if missing)
		_ = godotenv.Load()

		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		setupLogger(cfg)
		if err := cfg.Validate(); err != nil {
			log.WithError(err).Error("backend not configured; network commands will fail")
		}
		if cfg.FrontendBaseURL == "" {
			log.WithError(config.ErrMissingFrontendBaseURL).Debug("join links will be relative")
		}
		return nil
	},
}

func setupLogger(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
