package cmd

import (
	"context"
	"fmt"

	"github.com/arranf/MailChimpSync/core/config"
	"github.com/arranf/MailChimpSync/core/database"
	"github.com/arranf/MailChimpSync/core/logger"
	"github.com/arranf/MailChimpSync/core/storage"
	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"
	"github.com/arranf/MailChimpSync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryValidate bool

// syncCmd runs one full reconciliation and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation against the Mailchimp list",
	Long: `Runs a single full reconciliation: pulls the remote member and segment
snapshot, resolves every member against the directory, applies the member
deltas in both directions and reconciles group segments.

A partially failed run still syncs everyone it can; the command then exits
non-zero with every cause listed.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryValidate, "validate", false, "Only validate the configuration, without syncing")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	if dryValidate {
		if err := cfg.Sync.Validate(); err != nil {
			return err
		}
		l.Info("Configuration is valid")
		return nil
	}

	service, err := buildSyncService(cfg, l)
	if err != nil {
		return err
	}

	result, err := service.Run(context.Background())
	if result != nil {
		l.Info(result.Summary(),
			zap.Int("removed", result.Removed),
			zap.Int("onboarded", result.Onboarded),
			zap.Int("deferred", result.Deferred),
			zap.Int("segments_created", result.SegmentsCreated),
			zap.Int("segments_updated", result.SegmentsUpdated),
			zap.Int("segments_deleted", result.SegmentsDeleted),
		)
	}
	return err
}

// buildSyncService assembles the full sync stack from configuration. Shared
// by the one-shot sync command and the HTTP server.
func buildSyncService(cfg *config.Config, l *zap.Logger) (*sync.Service, error) {
	// The run timeout governs the directory queries too.
	if cfg.Sync.TimeoutSeconds > 0 {
		cfg.Database.TimeoutSeconds = cfg.Sync.TimeoutSeconds
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := sync.Migrate(db); err != nil {
		return nil, err
	}

	api, err := mailchimp.NewAPIClient(cfg.Sync.ApiKey, cfg.Sync.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Mailchimp client: %w", err)
	}

	store := directory.NewStore(db)
	links := sync.NewLinkStore(db)

	var onboarder sync.Onboarder
	switch cfg.Sync.OnboardingMode {
	case sync.OnboardWorkflow:
		onboarder = sync.NewWorkflowNotifier(cfg.Sync.WorkflowURL)
	default:
		onboarder = sync.NewLocalCreator(store, cfg.Sync.NewPersonStatus)
	}

	engine := sync.NewEngine(cfg.Sync, api, store, links, onboarder, l)

	var archiver *sync.Archiver
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		archiver = sync.NewArchiver(client, cfg.Storage.Bucket)
	}

	return sync.NewService(engine, archiver, l), nil
}
