package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"gatecheck/internal/browser"
	"gatecheck/internal/challenge"
	"gatecheck/internal/check"
	"gatecheck/internal/config"
	"gatecheck/internal/history"
	"gatecheck/internal/logging"
	"gatecheck/internal/report"
	"gatecheck/internal/terminal"
)

func newCheckCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		headless   bool
		parallel   bool
		outputFlag string
		outputFile string
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "check CONTAINER...",
		Short: "Check container availability across the configured terminals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			format, err := resolveFormat(cmd, cfg, outputFlag)
			if err != nil {
				return err
			}

			lock, err := cmdCtx.acquireLock()
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release lock failed", logging.Error(err))
				}
			}()

			mode := check.ModeSequential
			if parallel || (cfg.Check.Parallel && !cmd.Flags().Changed("parallel")) {
				mode = check.ModeParallel
			}

			sources, err := buildSources(cmd.Context(), cfg, logger, headless)
			if err != nil {
				return err
			}

			runner := check.NewRunner(logger, sources...)
			rep, err := runner.Run(cmd.Context(), args, mode)
			if err != nil {
				return err
			}

			if !noHistory {
				saveHistory(cmd.Context(), cfg, logger, rep)
			}

			if outputFile != "" {
				return report.RenderFile(outputFile, rep, format)
			}
			return report.Render(cmd.OutOrStdout(), rep, format)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run login-based terminal sessions without a browser window")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Query every terminal concurrently")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output format: table, csv, or json")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the run in the history database")

	return cmd
}

func resolveFormat(cmd *cobra.Command, cfg *config.Config, flag string) (report.Format, error) {
	name := strings.TrimSpace(flag)
	if name == "" {
		name = cfg.Check.Output
	}
	if name == "" || name == "auto" {
		return report.DefaultFormat(cmd.OutOrStdout()), nil
	}
	return report.ParseFormat(name)
}

// buildSources opens one browser session per configured terminal. On any
// failure the already-opened sessions are closed before returning.
func buildSources(ctx context.Context, cfg *config.Config, logger *slog.Logger, headless bool) ([]terminal.Source, error) {
	var sources []terminal.Source
	closeAll := func() {
		for _, src := range sources {
			_ = src.Close()
		}
	}

	for _, tc := range cfg.Terminals {
		switch tc.Kind {
		case "trapac":
			// A human has to be able to see and solve the challenge, so
			// these sessions always get a visible window.
			session, err := browser.Connect(ctx, browser.ConnectOptions{
				URL:         cfg.Browser.WebDriverURL,
				Headless:    false,
				DownloadDir: cfg.Paths.DownloadDir,
			})
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("open browser for %s: %w", tc.Name, err)
			}
			waiter := challenge.New(logger,
				challenge.WithIntervals(cfg.Challenge.PollInterval(), cfg.Challenge.SettleDelay(), cfg.Challenge.Ceiling()),
				challenge.WithHeartbeat(cfg.Challenge.Heartbeat(), nil))
			sources = append(sources, terminal.NewTrapac(session, waiter, logger, terminal.TrapacConfig{
				BaseURL: tc.URL,
			}))

		case "tideworks":
			session, err := browser.Connect(ctx, browser.ConnectOptions{
				URL:         cfg.Browser.WebDriverURL,
				Headless:    headless || cfg.Browser.Headless,
				DownloadDir: cfg.Paths.DownloadDir,
			})
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("open browser for %s: %w", tc.Name, err)
			}
			sources = append(sources, terminal.NewTideworks(session, logger, terminal.TideworksConfig{
				Name:     tc.Name,
				BaseURL:  tc.URL,
				Username: tc.Username,
				Password: tc.Password,
			}))

		default:
			closeAll()
			return nil, fmt.Errorf("terminal %q: unknown kind %q", tc.Name, tc.Kind)
		}
	}
	return sources, nil
}

// saveHistory records the run. Persistence failures never fail the check.
func saveHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, rep *check.Report) {
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Warn("history database unavailable", logging.Error(err))
		return
	}
	defer store.Close()
	if err := store.SaveRun(ctx, rep); err != nil {
		logger.Warn("saving run history failed", logging.Error(err))
	}
}
