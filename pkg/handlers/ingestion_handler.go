package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/services"
)

// IngestionHandler exposes the write side of the context stores: lineage
// edges, producing queries and scan results.
type IngestionHandler struct {
	ingestion services.IngestionService
	logger    *zap.Logger
}

// NewIngestionHandler creates a new ingestion handler.
func NewIngestionHandler(ingestion services.IngestionService, logger *zap.Logger) *IngestionHandler {
	return &IngestionHandler{
		ingestion: ingestion,
		logger:    logger.Named("handlers"),
	}
}

// RegisterRoutes registers the ingestion routes on the given mux.
func (h *IngestionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/lineage/link", h.RecordLink)
	mux.HandleFunc("POST /api/lineage/process", h.RecordProcess)
	mux.HandleFunc("POST /api/scans/profile", h.RecordProfile)
	mux.HandleFunc("POST /api/scans/quality", h.RecordQuality)
}

type lineageLinkRequest struct {
	Table  string `json:"table"`
	Source string `json:"source"`
}

type lineageProcessRequest struct {
	Table string `json:"table"`
	SQL   string `json:"sql"`
}

type scanResultRequest struct {
	Table  string `json:"table"`
	Result string `json:"result"`
}

func (h *IngestionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func (h *IngestionHandler) table(w http.ResponseWriter, fqn string) (models.MetadataTarget, bool) {
	target, err := models.ParseTableFQN(fqn)
	if err != nil {
		_ = WriteError(w, err)
		return models.MetadataTarget{}, false
	}
	return target, true
}

// RecordLink handles POST /api/lineage/link.
func (h *IngestionHandler) RecordLink(w http.ResponseWriter, r *http.Request) {
	var req lineageLinkRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.table(w, req.Table)
	if !ok {
		return
	}
	source, ok := h.table(w, req.Source)
	if !ok {
		return
	}

	if err := h.ingestion.RecordLineageLink(r.Context(), target, source); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

// RecordProcess handles POST /api/lineage/process.
func (h *IngestionHandler) RecordProcess(w http.ResponseWriter, r *http.Request) {
	var req lineageProcessRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.table(w, req.Table)
	if !ok {
		return
	}

	if err := h.ingestion.RecordLineageProcess(r.Context(), target, req.SQL); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

// RecordProfile handles POST /api/scans/profile.
func (h *IngestionHandler) RecordProfile(w http.ResponseWriter, r *http.Request) {
	var req scanResultRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.table(w, req.Table)
	if !ok {
		return
	}

	if err := h.ingestion.RecordProfileScan(r.Context(), target, req.Result); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

// RecordQuality handles POST /api/scans/quality.
func (h *IngestionHandler) RecordQuality(w http.ResponseWriter, r *http.Request) {
	var req scanResultRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.table(w, req.Table)
	if !ok {
		return
	}

	if err := h.ingestion.RecordQualityScan(r.Context(), target, req.Result); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}
