package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
)

// AdapterOutcome is the per-adapter line of the run summary.
type AdapterOutcome struct {
	Adapter  string        `json:"adapter"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      string        `json:"error,omitempty"`
}

// SyncSummary is the end-of-run report.
type SyncSummary struct {
	RunID       string           `json:"run_id"`
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Deactivated int64            `json:"deactivated_policies"`
	Elapsed     time.Duration    `json:"elapsed"`
	Outcomes    []AdapterOutcome `json:"outcomes"`
}

// SyncService owns the end-to-end batch run: expire stale policies first,
// then invoke every TPA adapter in a fixed order with isolated failure
// handling and a fixed delay between adapters so external hosts are not
// hammered.
type SyncService struct {
	policyRepo   repositories.PolicyRepository
	adapters     []tpa.Adapter
	bus          providers.EventBus
	adapterDelay time.Duration
	now          func() time.Time
}

// NewSyncService creates a new sync service. The bus may be nil when Redis
// is unavailable; events are then skipped.
func NewSyncService(
	policyRepo repositories.PolicyRepository,
	adapters []tpa.Adapter,
	bus providers.EventBus,
	adapterDelay time.Duration,
) *SyncService {
	return &SyncService{
		policyRepo:   policyRepo,
		adapters:     adapters,
		bus:          bus,
		adapterDelay: adapterDelay,
		now:          time.Now,
	}
}

// ExpirePolicies deactivates policies whose end date has passed. Adapters
// must never sync hospitals against a since-expired policy, so a failure
// here is fatal to the whole run.
func (s *SyncService) ExpirePolicies(ctx context.Context) (int64, error) {
	logger := observability.LoggerFromContext(ctx)
	asOf := s.now()

	expired, err := s.policyRepo.ListExpired(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("listing expired policies: %w", err)
	}
	for _, policy := range expired {
		logger.Info().
			Str("policy", policy.PolicyNumber).
			Int("tpa_id", policy.TPAID).
			Time("end_date", policy.PolicyEndDate).
			Msg("deactivating expired policy")
	}

	count, err := s.policyRepo.DeactivateExpired(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("deactivating expired policies: %w", err)
	}
	return count, nil
}

// Run executes the full batch: expiration, then every adapter in order.
// Individual adapter failures are counted and logged, never propagated.
func (s *SyncService) Run(ctx context.Context) (*SyncSummary, error) {
	return s.run(ctx, s.adapters)
}

// RunOne executes the expiration step and a single adapter selected by name.
func (s *SyncService) RunOne(ctx context.Context, name string) (*SyncSummary, error) {
	for _, adapter := range s.adapters {
		if adapter.Name() == name {
			return s.run(ctx, []tpa.Adapter{adapter})
		}
	}
	return nil, fmt.Errorf("unknown tpa adapter %q", name)
}

func (s *SyncService) run(ctx context.Context, adapters []tpa.Adapter) (*SyncSummary, error) {
	ctx, span := observability.StartSpan(ctx, "tpa.sync.run")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := s.now()

	summary := &SyncSummary{
		RunID: uuid.NewString(),
		Total: len(adapters),
	}
	span.SetAttributes(attribute.String("sync.run_id", summary.RunID))

	deactivated, err := s.ExpirePolicies(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	summary.Deactivated = deactivated
	logger.Info().Int64("deactivated", deactivated).Msg("policy expiration complete")

	for i, adapter := range adapters {
		s.publish(ctx, entities.NewSyncEvent(summary.RunID, adapter.Name(), entities.SyncEventTypeStarted))

		adapterStart := s.now()
		result, err := s.runAdapter(ctx, adapter)
		elapsed := s.now().Sub(adapterStart)

		outcome := AdapterOutcome{
			Adapter:  adapter.Name(),
			Inserted: result.Inserted,
			Skipped:  result.Skipped,
			Elapsed:  elapsed,
		}

		if err != nil {
			summary.Failed++
			outcome.Err = err.Error()
			logger.Error().
				Err(err).
				Str("tpa", adapter.Name()).
				Dur("elapsed", elapsed).
				Msg("adapter FAILED")

			event := entities.NewSyncEvent(summary.RunID, adapter.Name(), entities.SyncEventTypeFailed)
			event.Error = err.Error()
			s.publish(ctx, event)
		} else {
			summary.Succeeded++
			logger.Info().
				Str("tpa", adapter.Name()).
				Int("inserted", result.Inserted).
				Int("skipped", result.Skipped).
				Dur("elapsed", elapsed).
				Msg("adapter SUCCESS")

			event := entities.NewSyncEvent(summary.RunID, adapter.Name(), entities.SyncEventTypeCompleted)
			event.Inserted = result.Inserted
			event.Skipped = result.Skipped
			s.publish(ctx, event)
		}

		summary.Outcomes = append(summary.Outcomes, outcome)

		if s.adapterDelay > 0 && i < len(adapters)-1 {
			select {
			case <-ctx.Done():
				summary.Elapsed = s.now().Sub(start)
				return summary, ctx.Err()
			case <-time.After(s.adapterDelay):
			}
		}
	}

	summary.Elapsed = s.now().Sub(start)
	logger.Info().
		Str("run_id", summary.RunID).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("sync run complete")

	return summary, nil
}

// runAdapter isolates one adapter invocation: panics become errors so one
// misbehaving TPA cannot abort the remaining adapters.
func (s *SyncService) runAdapter(ctx context.Context, adapter tpa.Adapter) (result entities.RunResult, err error) {
	ctx, span := observability.StartSpan(ctx, "tpa.sync."+adapter.Name())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r)
		}
		if err != nil {
			observability.RecordError(span, err)
		}
		span.SetAttributes(
			attribute.Int("sync.inserted", result.Inserted),
			attribute.Int("sync.skipped", result.Skipped),
		)
	}()

	result, err = adapter.Run(ctx)
	return result, err
}

func (s *SyncService) publish(ctx context.Context, event *entities.SyncEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, providers.EventChannelSync, event); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("sync event publish failed")
	}
}
