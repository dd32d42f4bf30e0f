package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	sessionpg "github.com/frahmantamala/gym-management/internal/session/postgres"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background maintenance workers.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Purge expired sessions on an interval",
	Run: func(cmd *cobra.Command, args []string) {
		startSessionWorker()
	},
}

var (
	sweepEvery time.Duration
	sweepOnce  bool
)

// ExpiredSessionPurger deletes session rows past their expiry.
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func startSessionWorker() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}
	repo := sessionpg.NewSessionRepository(gdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sweepOnce {
		sweepSessions(ctx, repo, time.Now)
		return
	}

	lg.Info("session worker started", "interval", sweepEvery)
	runSessionSweeper(ctx, repo, sweepEvery, time.Now)
	lg.Info("session worker stopped")
}

// runSessionSweeper sweeps immediately and then on every tick until ctx ends.
func runSessionSweeper(ctx context.Context, repo ExpiredSessionPurger, every time.Duration, now func() time.Time) {
	sweepSessions(ctx, repo, now)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepSessions(ctx, repo, now)
		}
	}
}

func sweepSessions(ctx context.Context, repo ExpiredSessionPurger, now func() time.Time) {
	lg := logger.From(ctx)
	removed, err := repo.DeleteExpired(ctx, now())
	if err != nil {
		if ctx.Err() == nil {
			lg.ErrorContext(ctx, "expired session sweep failed", "error", err)
		}
		return
	}
	if removed > 0 {
		lg.InfoContext(ctx, "expired sessions purged", "count", removed)
	}
}

func init() {
	sessionWorkerCmd.Flags().DurationVar(&sweepEvery, "every", 15*time.Minute, "sweep interval")
	sessionWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "sweep once and exit")

	workerCmd.AddCommand(sessionWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
