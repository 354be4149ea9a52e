package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/observability"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/protocoling"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/retry"
)

// RecommendationService runs the full protocoling pipeline: validate the
// case, draft a recommendation, resolve it against institutional policy, and
// persist, publish, and measure the outcome.
type RecommendationService struct {
	engine        *protocoling.Engine
	protocols     repositories.ProtocolRepository
	records       repositories.RecommendationRepository
	drafts        providers.DraftProvider
	eventBus      providers.EventBus
	notifier      providers.ReviewNotifier
	metrics       *observability.Metrics
	draftAttempts int
}

// NewRecommendationService creates a new recommendation service. The event
// bus, notifier and metrics are optional; a nil value disables that concern.
func NewRecommendationService(
	engine *protocoling.Engine,
	protocols repositories.ProtocolRepository,
	records repositories.RecommendationRepository,
	drafts providers.DraftProvider,
	eventBus providers.EventBus,
	notifier providers.ReviewNotifier,
	metrics *observability.Metrics,
	draftAttempts int,
) *RecommendationService {
	if draftAttempts <= 0 {
		draftAttempts = 3
	}
	return &RecommendationService{
		engine:        engine,
		protocols:     protocols,
		records:       records,
		drafts:        drafts,
		eventBus:      eventBus,
		notifier:      notifier,
		metrics:       metrics,
		draftAttempts: draftAttempts,
	}
}

// Recommend runs the pipeline for one case and returns the audit record.
// Validation errors are returned to the caller with nothing persisted; every
// other failure degrades to a persisted sentinel record.
func (s *RecommendationService) Recommend(ctx context.Context, c *entities.PatientCase) (*entities.RecommendationRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	renal := s.engine.AssessRenal(c)

	record := &entities.RecommendationRecord{
		ID:          uuid.New().String(),
		Case:        *c,
		RenalStatus: string(renal.Classification),
		CreatedAt:   time.Now().UTC(),
	}
	if s.drafts != nil {
		record.Model = s.drafts.Model()
	}

	table, err := s.protocols.Load(ctx)
	if err != nil {
		// Reference failure preempts the draft call entirely.
		log.Warn().Err(err).Str("study_id", c.StudyID).
			Msg("Protocol reference unavailable, degrading to sentinel")
		s.degrade(record, entities.FailureReferenceUnavailable)
		return s.finish(ctx, record, start)
	}

	draft, attempts, err := s.generateDraft(ctx, c, table, renal.Guidance)
	record.DraftAttempts = attempts
	if err != nil {
		log.Warn().Err(err).Str("study_id", c.StudyID).Int("attempts", attempts).
			Msg("Draft generation failed, degrading to sentinel")
		s.degrade(record, entities.FailureDraftFailed)
		return s.finish(ctx, record, start)
	}
	record.Draft = draft

	result := s.engine.Finalize(c, table, draft)
	record.Final = result.Final
	record.MatchedRule = result.MatchedRule
	record.Corrections = result.Corrections
	record.Sentinel = result.Final.IsSentinel()

	return s.finish(ctx, record, start)
}

// generateDraft calls the draft provider with bounded retries. Each attempt
// is independent; one malformed reply does not poison the next.
func (s *RecommendationService) generateDraft(ctx context.Context, c *entities.PatientCase, table *entities.ProtocolTable, renalGuidance string) (*entities.DraftRecommendation, int, error) {
	if s.drafts == nil {
		return nil, 0, apperrors.NewDraftError("no draft provider configured", nil)
	}

	var draft *entities.DraftRecommendation
	attempts := 0
	err := retry.DoWithLog(ctx, retry.DraftConfig(s.draftAttempts), "Draft",
		func() error {
			attempts++
			d, err := s.drafts.DraftRecommendation(ctx, c, table, renalGuidance)
			if err != nil {
				return err
			}
			draft = d
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Str("study_id", c.StudyID).Int("attempt", attempt).
				Dur("next_delay", nextDelay).Msg("Draft attempt failed")
		},
	)
	if err != nil {
		return nil, attempts, err
	}
	return draft, attempts, nil
}

// degrade fills the record with the sentinel result for the case.
func (s *RecommendationService) degrade(record *entities.RecommendationRecord, reason string) {
	record.Final = s.engine.Sentinel(&record.Case)
	record.Sentinel = true
	record.FailureReason = reason
}

// finish persists the record, publishes events, and records metrics. A
// persistence failure is logged; the caller still gets the result.
func (s *RecommendationService) finish(ctx context.Context, record *entities.RecommendationRecord, start time.Time) (*entities.RecommendationRecord, error) {
	record.DurationMS = time.Since(start).Milliseconds()

	if s.records != nil {
		if err := s.records.Save(ctx, record); err != nil {
			log.Error().Err(err).Str("record_id", record.ID).
				Msg("Failed to persist recommendation record")
		}
	}

	s.publish(ctx, record)

	if record.Sentinel && s.notifier != nil && s.notifier.IsEnabled() {
		if err := s.notifier.NotifyFlagged(ctx, record); err != nil {
			log.Warn().Err(err).Str("record_id", record.ID).
				Msg("Failed to send review alert")
		}
	}

	observability.RecordRecommendationMetric(ctx, s.metrics, record.MatchedRule,
		record.Sentinel, len(record.Corrections), record.DraftAttempts,
		time.Duration(record.DurationMS)*time.Millisecond)

	return record, nil
}

func (s *RecommendationService) publish(ctx context.Context, record *entities.RecommendationRecord) {
	if s.eventBus == nil {
		return
	}

	event := &entities.RecommendationEvent{
		ID:        uuid.New().String(),
		EventType: entities.EventRecommendationCompleted,
		RecordID:  record.ID,
		StudyID:   record.Case.StudyID,
		Location:  record.Case.Location,
		Priority:  record.Final.Priority,
		Protocol:  record.Final.Protocol,
		Sentinel:  record.Sentinel,
		Timestamp: time.Now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelCompleted, event); err != nil {
		log.Warn().Err(err).Str("record_id", record.ID).Msg("Failed to publish completed event")
	}

	if record.Sentinel {
		flagged := *event
		flagged.ID = uuid.New().String()
		flagged.EventType = entities.EventRecommendationFlagged
		if err := s.eventBus.Publish(ctx, providers.EventChannelFlagged, &flagged); err != nil {
			log.Warn().Err(err).Str("record_id", record.ID).Msg("Failed to publish flagged event")
		}
	}
}

// GetRecord retrieves one audit record by ID.
func (s *RecommendationService) GetRecord(ctx context.Context, id string) (*entities.RecommendationRecord, error) {
	return s.records.GetByID(ctx, id)
}

// ListByStudy retrieves the audit trail for one study.
func (s *RecommendationService) ListByStudy(ctx context.Context, studyID string) ([]*entities.RecommendationRecord, error) {
	return s.records.ListByStudy(ctx, studyID)
}

// ListRecent retrieves the most recent records.
func (s *RecommendationService) ListRecent(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	return s.records.ListRecent(ctx, filter)
}

// ListFlagged retrieves sentinel records awaiting manual review.
func (s *RecommendationService) ListFlagged(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	return s.records.ListFlagged(ctx, filter)
}
