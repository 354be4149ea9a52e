package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/postgres"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

const recommendationRecordsTable = "recommendation_records"

// RecommendationAdapter implements recommendation audit persistence in
// Postgres.
type RecommendationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRecommendationAdapter creates a new recommendation audit adapter.
func NewRecommendationAdapter(client *postgres.Client) repositories.RecommendationRepository {
	return &RecommendationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var recommendationColumns = []interface{}{
	"id", "study_id", "location", "exam", "clinical_info", "prior_reaction", "egfr",
	"draft_priority", "draft_protocol", "draft_iv_contrast", "draft_oral_contrast",
	"final_priority", "final_protocol", "final_iv_contrast", "final_oral_contrast",
	"renal_status", "matched_rule", "corrections", "sentinel", "failure_reason",
	"model", "draft_attempts", "duration_ms", "created_at",
}

// Save persists a completed recommendation record.
func (a *RecommendationAdapter) Save(ctx context.Context, record *entities.RecommendationRecord) error {
	if record == nil {
		return apperrors.NewInternalError("recommendation record is nil", fmt.Errorf("record is nil"))
	}

	corrections, err := json.Marshal(record.Corrections)
	if err != nil {
		return apperrors.NewInternalError("failed to encode corrections", err)
	}

	draft := record.Draft
	if draft == nil {
		draft = &entities.DraftRecommendation{}
	}

	row := goqu.Record{
		"id":                  record.ID,
		"study_id":            record.Case.StudyID,
		"location":            record.Case.Location,
		"exam":                record.Case.Exam,
		"clinical_info":       record.Case.ClinicalInfo,
		"prior_reaction":      record.Case.PriorReaction,
		"egfr":                record.Case.EGFR,
		"draft_priority":      sql.NullString{String: draft.Priority, Valid: record.Draft != nil},
		"draft_protocol":      sql.NullString{String: draft.Protocol, Valid: record.Draft != nil},
		"draft_iv_contrast":   sql.NullString{String: draft.IVContrast, Valid: record.Draft != nil},
		"draft_oral_contrast": sql.NullString{String: draft.OralContrast, Valid: record.Draft != nil},
		"final_priority":      record.Final.Priority,
		"final_protocol":      record.Final.Protocol,
		"final_iv_contrast":   record.Final.IVContrast,
		"final_oral_contrast": record.Final.OralContrast,
		"renal_status":        record.RenalStatus,
		"matched_rule":        sql.NullString{String: record.MatchedRule, Valid: record.MatchedRule != ""},
		"corrections":         string(corrections),
		"sentinel":            record.Sentinel,
		"failure_reason":      sql.NullString{String: record.FailureReason, Valid: record.FailureReason != ""},
		"model":               sql.NullString{String: record.Model, Valid: record.Model != ""},
		"draft_attempts":      record.DraftAttempts,
		"duration_ms":         record.DurationMS,
		"created_at":          record.CreatedAt,
	}

	query, args, err := a.db.Insert(recommendationRecordsTable).Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build recommendation insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save recommendation record", err)
	}

	return nil
}

// GetByID retrieves a record by its ID.
func (a *RecommendationAdapter) GetByID(ctx context.Context, id string) (*entities.RecommendationRecord, error) {
	query, args, err := a.db.From(recommendationRecordsTable).
		Select(recommendationColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build recommendation query", err)
	}

	record, err := a.scanRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("recommendation record %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get recommendation record", err)
	}
	return record, nil
}

// ListByStudy retrieves all records for a study, newest first.
func (a *RecommendationAdapter) ListByStudy(ctx context.Context, studyID string) ([]*entities.RecommendationRecord, error) {
	query, args, err := a.db.From(recommendationRecordsTable).
		Select(recommendationColumns...).
		Where(goqu.C("study_id").Eq(studyID)).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build study query", err)
	}
	return a.queryRecords(ctx, query, args)
}

// ListRecent retrieves the most recent records.
func (a *RecommendationAdapter) ListRecent(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	ds := a.db.From(recommendationRecordsTable).
		Select(recommendationColumns...).
		Order(goqu.C("created_at").Desc())
	ds = applyRecommendationFilter(ds, filter)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build recent query", err)
	}
	return a.queryRecords(ctx, query, args)
}

// ListFlagged retrieves sentinel records needing manual review, newest first.
func (a *RecommendationAdapter) ListFlagged(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	ds := a.db.From(recommendationRecordsTable).
		Select(recommendationColumns...).
		Where(goqu.C("sentinel").IsTrue()).
		Order(goqu.C("created_at").Desc())
	ds = applyRecommendationFilter(ds, filter)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build flagged query", err)
	}
	return a.queryRecords(ctx, query, args)
}

func applyRecommendationFilter(ds *goqu.SelectDataset, filter repositories.RecommendationFilter) *goqu.SelectDataset {
	if filter.Location != "" {
		ds = ds.Where(goqu.C("location").Eq(filter.Location))
	}
	if filter.Priority > 0 {
		ds = ds.Where(goqu.C("final_priority").Eq(filter.Priority))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	ds = ds.Limit(uint(limit))
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds
}

func (a *RecommendationAdapter) queryRecords(ctx context.Context, query string, args []interface{}) ([]*entities.RecommendationRecord, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query recommendation records", err)
	}
	defer rows.Close()

	var records []*entities.RecommendationRecord
	for rows.Next() {
		record, err := a.scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan recommendation record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate recommendation records", err)
	}
	return records, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *RecommendationAdapter) scanRecord(row rowScanner) (*entities.RecommendationRecord, error) {
	var (
		record            entities.RecommendationRecord
		draftPriority     sql.NullString
		draftProtocol     sql.NullString
		draftIVContrast   sql.NullString
		draftOralContrast sql.NullString
		matchedRule       sql.NullString
		failureReason     sql.NullString
		model             sql.NullString
		corrections       string
	)

	err := row.Scan(
		&record.ID,
		&record.Case.StudyID,
		&record.Case.Location,
		&record.Case.Exam,
		&record.Case.ClinicalInfo,
		&record.Case.PriorReaction,
		&record.Case.EGFR,
		&draftPriority,
		&draftProtocol,
		&draftIVContrast,
		&draftOralContrast,
		&record.Final.Priority,
		&record.Final.Protocol,
		&record.Final.IVContrast,
		&record.Final.OralContrast,
		&record.RenalStatus,
		&matchedRule,
		&corrections,
		&record.Sentinel,
		&failureReason,
		&model,
		&record.DraftAttempts,
		&record.DurationMS,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if draftPriority.Valid || draftProtocol.Valid || draftIVContrast.Valid || draftOralContrast.Valid {
		record.Draft = &entities.DraftRecommendation{
			Priority:     draftPriority.String,
			Protocol:     draftProtocol.String,
			IVContrast:   draftIVContrast.String,
			OralContrast: draftOralContrast.String,
		}
	}
	record.MatchedRule = matchedRule.String
	record.FailureReason = failureReason.String
	record.Model = model.String

	if corrections != "" && corrections != "null" {
		if err := json.Unmarshal([]byte(corrections), &record.Corrections); err != nil {
			return nil, fmt.Errorf("corrupt corrections payload: %w", err)
		}
	}

	return &record, nil
}
