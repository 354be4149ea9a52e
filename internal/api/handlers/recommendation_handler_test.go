package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/handlers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

type stubRecommendationService struct {
	recommended []*entities.PatientCase
	record      *entities.RecommendationRecord
	recommendEr error
	getErr      error
	listRecent  []*entities.RecommendationRecord
	listFlagged []*entities.RecommendationRecord
	lastFilter  repositories.RecommendationFilter
}

func (s *stubRecommendationService) Recommend(ctx context.Context, c *entities.PatientCase) (*entities.RecommendationRecord, error) {
	s.recommended = append(s.recommended, c)
	if s.recommendEr != nil {
		return nil, s.recommendEr
	}
	return s.record, nil
}

func (s *stubRecommendationService) GetRecord(ctx context.Context, id string) (*entities.RecommendationRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.record, nil
}

func (s *stubRecommendationService) ListByStudy(ctx context.Context, studyID string) ([]*entities.RecommendationRecord, error) {
	if s.record != nil && s.record.Case.StudyID == studyID {
		return []*entities.RecommendationRecord{s.record}, nil
	}
	return nil, nil
}

func (s *stubRecommendationService) ListRecent(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	s.lastFilter = filter
	return s.listRecent, nil
}

func (s *stubRecommendationService) ListFlagged(ctx context.Context, filter repositories.RecommendationFilter) ([]*entities.RecommendationRecord, error) {
	s.lastFilter = filter
	return s.listFlagged, nil
}

func sampleRecord() *entities.RecommendationRecord {
	return &entities.RecommendationRecord{
		ID: "rec-1",
		Case: entities.PatientCase{
			StudyID:      "S-100",
			Location:     "OP",
			Exam:         "CT abdomen pelvis",
			ClinicalInfo: "right lower quadrant pain",
			EGFR:         "85",
		},
		Final: entities.FinalRecommendation{
			Priority:     3,
			Protocol:     "Appendicitis",
			IVContrast:   "C+",
			OralContrast: "None",
		},
		RenalStatus:   "normal",
		DraftAttempts: 1,
	}
}

func TestRecommendationHandler_Create_Success(t *testing.T) {
	service := &stubRecommendationService{record: sampleRecord()}
	handler := handlers.NewRecommendationHandler(service)

	body := `{"study_id":"S-100","location":"OP","ct_exam":"CT abdomen pelvis","clinical_info":"right lower quadrant pain","egfr":"85"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRecommendation(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, service.recommended, 1)
	assert.Equal(t, "S-100", service.recommended[0].StudyID)
	assert.Equal(t, "CT abdomen pelvis", service.recommended[0].Exam)

	var record entities.RecommendationRecord
	err := json.NewDecoder(w.Body).Decode(&record)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, "Appendicitis", record.Final.Protocol)
	assert.Equal(t, 3, record.Final.Priority)
}

func TestRecommendationHandler_Create_SentinelStillOK(t *testing.T) {
	record := sampleRecord()
	record.Sentinel = true
	record.FailureReason = entities.FailureDraftFailed
	record.Final = entities.FinalRecommendation{
		Priority:     4,
		Protocol:     entities.NoData,
		IVContrast:   entities.NoData,
		OralContrast: entities.NoData,
	}
	service := &stubRecommendationService{record: record}
	handler := handlers.NewRecommendationHandler(service)

	body := `{"study_id":"S-100","location":"OP","ct_exam":"CT abdomen pelvis","clinical_info":"pain","egfr":"85"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRecommendation(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got entities.RecommendationRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.True(t, got.Sentinel)
	assert.Equal(t, entities.FailureDraftFailed, got.FailureReason)
}

func TestRecommendationHandler_Create_InvalidJSON(t *testing.T) {
	service := &stubRecommendationService{record: sampleRecord()}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.CreateRecommendation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.recommended)
}

func TestRecommendationHandler_Create_ValidationError(t *testing.T) {
	service := &stubRecommendationService{
		recommendEr: apperrors.NewValidationError("study_id is required"),
	}
	handler := handlers.NewRecommendationHandler(service)

	body := `{"location":"OP","ct_exam":"CT abdomen pelvis","clinical_info":"pain","egfr":"85"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRecommendation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "study_id is required", response["error"])
}

func TestRecommendationHandler_Create_InternalError(t *testing.T) {
	service := &stubRecommendationService{
		recommendEr: apperrors.NewInternalError("persist failed", nil),
	}
	handler := handlers.NewRecommendationHandler(service)

	body := `{"study_id":"S-100","location":"OP","ct_exam":"CT abdomen pelvis","clinical_info":"pain","egfr":"85"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRecommendation(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecommendationHandler_Get_Success(t *testing.T) {
	service := &stubRecommendationService{record: sampleRecord()}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations/rec-1", nil)
	req.SetPathValue("id", "rec-1")
	w := httptest.NewRecorder()

	handler.GetRecommendation(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var record entities.RecommendationRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&record))
	assert.Equal(t, "rec-1", record.ID)
}

func TestRecommendationHandler_Get_NotFound(t *testing.T) {
	service := &stubRecommendationService{
		getErr: apperrors.NewNotFoundError("recommendation not found"),
	}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.GetRecommendation(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationHandler_Get_MissingID(t *testing.T) {
	service := &stubRecommendationService{record: sampleRecord()}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations/", nil)
	w := httptest.NewRecorder()

	handler.GetRecommendation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendationHandler_List_ByStudy(t *testing.T) {
	service := &stubRecommendationService{record: sampleRecord()}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations?study_id=S-100", nil)
	w := httptest.NewRecorder()

	handler.ListRecommendations(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Recommendations []*entities.RecommendationRecord `json:"recommendations"`
		Count           int                              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "S-100", response.Recommendations[0].Case.StudyID)
}

func TestRecommendationHandler_List_Recent(t *testing.T) {
	service := &stubRecommendationService{
		listRecent: []*entities.RecommendationRecord{sampleRecord()},
	}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations?limit=10&location=ER&priority=1", nil)
	w := httptest.NewRecorder()

	handler.ListRecommendations(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, service.lastFilter.Limit)
	assert.Equal(t, "ER", service.lastFilter.Location)
	assert.Equal(t, 1, service.lastFilter.Priority)
}

func TestRecommendationHandler_List_EmptyIsNotNull(t *testing.T) {
	service := &stubRecommendationService{}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations", nil)
	w := httptest.NewRecorder()

	handler.ListRecommendations(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendations":[]`)
}

func TestRecommendationHandler_ListFlagged(t *testing.T) {
	flagged := sampleRecord()
	flagged.Sentinel = true
	flagged.FailureReason = entities.FailureReferenceUnavailable
	service := &stubRecommendationService{
		listFlagged: []*entities.RecommendationRecord{flagged},
	}
	handler := handlers.NewRecommendationHandler(service)

	req := httptest.NewRequest("GET", "/api/recommendations/flagged", nil)
	w := httptest.NewRecorder()

	handler.ListFlagged(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, service.lastFilter.Limit)

	var response struct {
		Recommendations []*entities.RecommendationRecord `json:"recommendations"`
		Count           int                              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 1, response.Count)
	assert.True(t, response.Recommendations[0].Sentinel)
}
