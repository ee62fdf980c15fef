package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/database"
	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/events"
	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa/auth"
	"github.com/zoomconnect/tpa-hospital-sync/internal/application/services"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/clients/postgres"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/clients/redis"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/secrets"
)

var (
	flagTPA          string
	flagAdapterDelay time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "tpasync",
		Short:         "Network hospital synchronization for TPA-backed policies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Expire stale policies, then sync hospital snapshots from every TPA",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), flagTPA)
		},
	}
	runCmd.Flags().StringVar(&flagTPA, "tpa", "", "sync a single TPA adapter by name (e.g. vidal, care)")
	runCmd.Flags().DurationVar(&flagAdapterDelay, "adapter-delay", -1, "override the pause between adapters")

	expireCmd := &cobra.Command{
		Use:   "expire",
		Short: "Deactivate policies past their end date, without syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpire(cmd.Context())
		},
	}

	root.AddCommand(runCmd, expireCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("tpasync: %v", err)
	}
}

func runSync(ctx context.Context, only string) error {
	cfg, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pgClient.Close()

	var bus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, sync events disabled")
	} else {
		defer redisClient.Close()
		bus = events.NewRedisEventBus(redisClient)
	}

	service := buildSyncService(cfg, pgClient, bus)

	var summary *services.SyncSummary
	if only != "" {
		summary, err = service.RunOne(ctx, only)
	} else {
		summary, err = service.Run(ctx)
	}
	if err != nil {
		return err
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d adapters failed", summary.Failed, summary.Total)
	}
	return nil
}

func runExpire(ctx context.Context) error {
	cfg, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pgClient.Close()

	service := services.NewSyncService(database.NewPolicyAdapter(pgClient), nil, nil, 0)
	count, err := service.ExpirePolicies(ctx)
	if err != nil {
		return err
	}
	observability.GetLogger().Info().Int64("deactivated", count).Msg("policy expiration complete")
	return nil
}

// bootstrap hydrates secrets, loads config and initializes logging and
// tracing. The returned cleanup flushes the tracer provider.
func bootstrap(ctx context.Context) (*config.Config, func(), error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	vaultCfg := secrets.LoadVaultConfigFromEnv()
	if vaultCfg.Enabled {
		if result, err := secrets.ApplyVaultSecrets(ctx, vaultCfg); err != nil {
			log.Printf("Warning: vault secret hydration failed: %v", err)
		} else {
			log.Printf("Vault secrets applied: %d loaded, %d skipped", result.Loaded, result.Skipped)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	cleanup := func() {}
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			observability.GetLogger().Warn().Err(err).Msg("tracing setup failed")
		} else {
			cleanup = func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					observability.GetLogger().Error().Err(err).Msg("tracing shutdown failed")
				}
			}
		}
	}

	return cfg, cleanup, nil
}

// buildSyncService wires every TPA adapter in the fixed run order.
func buildSyncService(cfg *config.Config, pgClient *postgres.Client, bus providers.EventBus) *services.SyncService {
	policies := database.NewPolicyAdapter(pgClient)
	snapshots := database.NewSnapshotAdapter(pgClient)
	gw := gateway.New()
	sink := audit.NewFileSink(cfg.Sync.AuditLogRoot)

	ewaTokens := auth.NewEWALoginProvider(cfg.TPA.EWA, gw)
	iciciTokens := auth.NewICICIOAuthProvider(cfg.TPA.ICICI, gw)
	careTokens := auth.NewCareSessionProvider(cfg.TPA.Care, gw)
	fhplTokens := auth.NewFHPLLoginProvider(cfg.TPA.FHPL, gw, sink)

	adapters := []tpa.Adapter{
		tpa.NewVidalAdapter(cfg.TPA.Vidal, gw, policies, snapshots, sink),
		tpa.NewEricsonAdapter(cfg.TPA.Ericson, gw, policies, snapshots, sink),
		tpa.NewMediassistAdapter(cfg.TPA.Mediassist, gw, policies, snapshots, sink),
		tpa.NewEWAAdapter(cfg.TPA.EWA, gw, policies, snapshots, ewaTokens, sink),
		tpa.NewICICIAdapter(cfg.TPA.ICICI, gw, snapshots, iciciTokens, sink),
		tpa.NewCareAdapter(cfg.TPA.Care, gw, snapshots, careTokens, sink, cfg.Sync.PageDelay, cfg.Sync.CareMaxPages),
		tpa.NewSafewayAdapter(cfg.TPA.Safeway, gw, policies, snapshots, sink),
		tpa.NewFHPLAdapter(cfg.TPA.FHPL, gw, policies, snapshots, fhplTokens, sink),
	}

	adapterDelay := cfg.Sync.AdapterDelay
	if flagAdapterDelay >= 0 {
		adapterDelay = flagAdapterDelay
	}

	return services.NewSyncService(policies, adapters, bus, adapterDelay)
}
