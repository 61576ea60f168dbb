package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Drakz0n/CommFlow/internal/config"
	"github.com/Drakz0n/CommFlow/internal/logging"
	"github.com/Drakz0n/CommFlow/internal/repository"
	"github.com/Drakz0n/CommFlow/internal/service"
	"github.com/Drakz0n/CommFlow/internal/storage"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := execute(ctx, a, newRootCommand(a)); err != nil {
		fmt.Fprintf(os.Stderr, "commflow: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything a command needs. It is filled in by the root
// command's PersistentPreRunE once flags are parsed.
type app struct {
	dataDir string
	verbose bool

	cfg         *config.Config
	logger      *slog.Logger
	closeLog    func() error
	store       *storage.FileStore
	clients     *service.ClientService
	commissions *service.CommissionService
	images      *service.ImageService
}

func (a *app) setup() error {
	cfg, err := config.Load(a.dataDir)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Verbose:    a.verbose,
	})
	if err != nil {
		return err
	}
	store := storage.New(cfg.DataDir)
	if err := store.EnsureLayout(); err != nil {
		closeLog()
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	a.store = store
	a.clients = service.NewClientService(repository.NewClientRepository(store, logger), logger)
	a.commissions = service.NewCommissionService(repository.NewCommissionRepository(store, logger), logger)
	a.images = service.NewImageService(store, cfg.MaxImageBytes, logger)
	logger.Debug("data directory ready", "path", cfg.DataDir)
	return nil
}

// teardown closes the log file. It is safe to call more than once.
func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	closeLog := a.closeLog
	a.closeLog = nil
	return closeLog()
}

// execute runs cmd and always releases what setup opened, including when
// the command fails.
func execute(ctx context.Context, a *app, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.teardown(); cerr != nil && err == nil {
		err = fmt.Errorf("close log: %w", cerr)
	}
	return err
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commflow",
		Short: "CommFlow commission tracker",
		Long: `CommFlow keeps clients, commissions and their reference images as plain JSON
and image files inside a data directory, filed by workflow status.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup()
		},
	}
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory (overrides COMMFLOW_DATA_DIR)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log everything to stderr, not just warnings")
	cmd.AddCommand(
		newClientCmd(a),
		newCommissionCmd(a),
		newImageCmd(a),
		newDataCmd(a),
		newDoctorCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// skipSetup marks commands that must run without touching the data directory.
const skipSetup = "commflow/skip-setup"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the CommFlow version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "commflow %s\n", version)
			return nil
		},
	}
}
