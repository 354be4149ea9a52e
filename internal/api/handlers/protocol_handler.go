package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/repositories"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

// ProtocolLibraryService defines the library operations used by the handler.
type ProtocolLibraryService interface {
	List(ctx context.Context) ([]*entities.Protocol, error)
	GetByName(ctx context.Context, name string) (*entities.Protocol, error)
	Search(ctx context.Context, params repositories.ProtocolSearchParams) ([]*entities.Protocol, error)
}

// ProtocolHandler handles protocol library HTTP requests
type ProtocolHandler struct {
	service ProtocolLibraryService
}

// NewProtocolHandler creates a new protocol handler
func NewProtocolHandler(service ProtocolLibraryService) *ProtocolHandler {
	return &ProtocolHandler{
		service: service,
	}
}

// ListProtocols handles GET /api/protocols
func (h *ProtocolHandler) ListProtocols(w http.ResponseWriter, r *http.Request) {
	protocols, err := h.service.List(r.Context())
	if err != nil {
		if apperrors.IsReference(err) {
			respondWithError(w, http.StatusServiceUnavailable, "protocol reference unavailable")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to list protocols")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"protocols": protocols,
		"count":     len(protocols),
	})
}

// GetProtocol handles GET /api/protocols/{name}
func (h *ProtocolHandler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "protocol name is required")
		return
	}

	protocol, err := h.service.GetByName(r.Context(), name)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			switch appErr.Type {
			case apperrors.ErrorTypeNotFound:
				respondWithError(w, http.StatusNotFound, appErr.Message)
			case apperrors.ErrorTypeReference:
				respondWithError(w, http.StatusServiceUnavailable, "protocol reference unavailable")
			default:
				respondWithError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, protocol)
}

// SearchProtocols handles GET /api/protocols/search?q=&limit=
func (h *ProtocolHandler) SearchProtocols(w http.ResponseWriter, r *http.Request) {
	params := repositories.ProtocolSearchParams{
		Query:      r.URL.Query().Get("q"),
		IVContrast: r.URL.Query().Get("iv_contrast"),
		Limit:      20,
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}

	protocols, err := h.service.Search(r.Context(), params)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search protocols")
		return
	}
	if protocols == nil {
		protocols = []*entities.Protocol{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"protocols": protocols,
		"count":     len(protocols),
	})
}
