package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

// RecommendationService defines the pipeline operations used by the handler.
type RecommendationService interface {
	Recommend(ctx context.Context, c *entities.PatientCase) (*entities.RecommendationRecord, error)
	GetRecord(ctx context.Context, id string) (*entities.RecommendationRecord, error)
	ListByStudy(ctx context.Context, studyID string) ([]*entities.RecommendationRecord, error)
	ListRecent(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error)
	ListFlagged(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error)
}

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	service RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
	}
}

type recommendationRequest struct {
	StudyID       string `json:"study_id"`
	Location      string `json:"location"`
	Exam          string `json:"ct_exam"`
	ClinicalInfo  string `json:"clinical_info"`
	PriorReaction string `json:"prior_reaction"`
	EGFR          string `json:"egfr"`
}

// CreateRecommendation handles POST /api/recommendations. Sentinel results
// are still 200: the degradation is data, not a transport failure.
func (h *RecommendationHandler) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var payload recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	c := &entities.PatientCase{
		StudyID:       payload.StudyID,
		Location:      payload.Location,
		Exam:          payload.Exam,
		ClinicalInfo:  payload.ClinicalInfo,
		PriorReaction: payload.PriorReaction,
		EGFR:          payload.EGFR,
	}

	record, err := h.service.Recommend(r.Context(), c)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeValidation {
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to generate recommendation")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// GetRecommendation handles GET /api/recommendations/{id}
func (h *RecommendationHandler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "recommendation ID is required")
		return
	}

	record, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			switch appErr.Type {
			case apperrors.ErrorTypeNotFound:
				respondWithError(w, http.StatusNotFound, appErr.Message)
			default:
				respondWithError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// ListRecommendations handles GET /api/recommendations?study_id=&limit=
func (h *RecommendationHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	if studyID := r.URL.Query().Get("study_id"); studyID != "" {
		records, err := h.service.ListByStudy(r.Context(), studyID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to list recommendations")
			return
		}
		respondWithRecords(w, records)
		return
	}

	records, err := h.service.ListRecent(r.Context(), recommendationFilterFromQuery(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list recommendations")
		return
	}
	respondWithRecords(w, records)
}

// ListFlagged handles GET /api/recommendations/flagged
func (h *RecommendationHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListFlagged(r.Context(), recommendationFilterFromQuery(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list flagged recommendations")
		return
	}
	respondWithRecords(w, records)
}

func respondWithRecords(w http.ResponseWriter, records []*entities.RecommendationRecord) {
	if records == nil {
		records = []*entities.RecommendationRecord{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": records,
		"count":           len(records),
	})
}

func recommendationFilterFromQuery(r *http.Request) repositories.RecommendationFilter {
	filter := repositories.RecommendationFilter{
		Location: r.URL.Query().Get("location"),
		Limit:    50,
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if priority, err := strconv.Atoi(r.URL.Query().Get("priority")); err == nil && priority > 0 {
		filter.Priority = priority
	}
	return filter
}
