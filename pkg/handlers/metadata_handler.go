package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/services"
)

// MetadataHandler exposes generation and review operations over HTTP. It
// only translates between JSON and service calls; all behavior lives in the
// services.
type MetadataHandler struct {
	metadata services.MetadataService
	review   services.ReviewService
	defaults models.GenerationOptions
	logger   *zap.Logger
}

// NewMetadataHandler creates a new metadata handler. defaults fills option
// fields the request leaves unset.
func NewMetadataHandler(
	metadata services.MetadataService,
	review services.ReviewService,
	defaults models.GenerationOptions,
	logger *zap.Logger,
) *MetadataHandler {
	return &MetadataHandler{
		metadata: metadata,
		review:   review,
		defaults: defaults,
		logger:   logger.Named("handlers"),
	}
}

// RegisterRoutes registers the metadata handler's routes on the given mux.
func (h *MetadataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/descriptions/table", h.GenerateTable)
	mux.HandleFunc("POST /api/descriptions/column", h.GenerateColumn)
	mux.HandleFunc("POST /api/descriptions/columns", h.GenerateColumns)
	mux.HandleFunc("POST /api/descriptions/dataset", h.GenerateDataset)
	mux.HandleFunc("POST /api/descriptions/dataset/regenerate", h.RegenerateDataset)

	mux.HandleFunc("POST /api/review/accept", h.Accept)
	mux.HandleFunc("POST /api/review/reject", h.Reject)
	mux.HandleFunc("POST /api/review/comment", h.AddComment)
	mux.HandleFunc("POST /api/review/negative-example", h.AddNegativeExample)
	mux.HandleFunc("POST /api/review/regenerate", h.MarkForRegeneration)
	mux.HandleFunc("POST /api/review/document", h.AttachDocument)
	mux.HandleFunc("GET /api/review/items", h.GetReviewItems)
	mux.HandleFunc("GET /api/review/details", h.GetReviewDetails)
}

// optionsRequest mirrors the tunable generation options in request bodies.
// Pointers distinguish "unset" from explicit false.
type optionsRequest struct {
	UseLineageTables       *bool   `json:"use_lineage_tables"`
	UseLineageProcesses    *bool   `json:"use_lineage_processes"`
	UseProfile             *bool   `json:"use_profile"`
	UseDataQuality         *bool   `json:"use_data_quality"`
	UseExtDocuments        *bool   `json:"use_ext_documents"`
	UseHumanComments       *bool   `json:"use_human_comments"`
	TopValuesInDescription *bool   `json:"top_values_in_description"`
	AddAIWarning           *bool   `json:"add_ai_warning"`
	PersistToCatalog       *bool   `json:"persist_to_catalog"`
	DescriptionHandling    *string `json:"description_handling"`
}

func (r *optionsRequest) apply(opts models.GenerationOptions) models.GenerationOptions {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&opts.UseLineageTables, r.UseLineageTables)
	setBool(&opts.UseLineageProcesses, r.UseLineageProcesses)
	setBool(&opts.UseProfile, r.UseProfile)
	setBool(&opts.UseDataQuality, r.UseDataQuality)
	setBool(&opts.UseExtDocuments, r.UseExtDocuments)
	setBool(&opts.UseHumanComments, r.UseHumanComments)
	setBool(&opts.TopValuesInDescription, r.TopValuesInDescription)
	setBool(&opts.AddAIWarning, r.AddAIWarning)
	setBool(&opts.PersistToCatalog, r.PersistToCatalog)
	if r.DescriptionHandling != nil {
		opts.DescriptionHandling = models.DescriptionHandling(*r.DescriptionHandling)
	}
	return opts
}

type targetRequest struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	optionsRequest
}

func (h *MetadataHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func (h *MetadataHandler) target(w http.ResponseWriter, req *targetRequest, wantColumn bool) (models.MetadataTarget, bool) {
	target, err := models.ParseTableFQN(req.Table)
	if err != nil {
		_ = WriteError(w, err)
		return models.MetadataTarget{}, false
	}
	if wantColumn {
		if strings.TrimSpace(req.Column) == "" {
			_ = ErrorResponse(w, http.StatusBadRequest, "configuration_error", "column is required")
			return models.MetadataTarget{}, false
		}
		target = target.WithColumn(req.Column)
	}
	return target, true
}

type draftResponse struct {
	Target string `json:"target"`
	Draft  string `json:"draft"`
}

// GenerateTable handles POST /api/descriptions/table.
func (h *MetadataHandler) GenerateTable(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req, false)
	if !ok {
		return
	}

	draft, err := h.metadata.GenerateTableDescription(r.Context(), target, req.apply(h.defaults))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, draftResponse{Target: target.FQN(), Draft: draft})
}

// GenerateColumn handles POST /api/descriptions/column.
func (h *MetadataHandler) GenerateColumn(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req, true)
	if !ok {
		return
	}

	draft, err := h.metadata.GenerateColumnDescription(r.Context(), target, req.apply(h.defaults))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, draftResponse{Target: target.FQN(), Draft: draft})
}

type batchResponse struct {
	Generated []string          `json:"generated"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func toBatchResponse(result *services.BatchResult) batchResponse {
	resp := batchResponse{Generated: []string{}}
	for _, t := range result.Generated {
		resp.Generated = append(resp.Generated, t.FQN())
	}
	if len(result.Failed) > 0 {
		resp.Failed = make(map[string]string, len(result.Failed))
		for _, f := range result.Failed {
			resp.Failed[f.Target.FQN()] = f.Err.Error()
		}
	}
	return resp
}

// GenerateColumns handles POST /api/descriptions/columns, drafting every
// column of a table.
func (h *MetadataHandler) GenerateColumns(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req, false)
	if !ok {
		return
	}

	result, err := h.metadata.GenerateColumnDescriptions(r.Context(), target, req.apply(h.defaults))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

type datasetRequest struct {
	Dataset             string `json:"dataset"`
	Strategy            string `json:"strategy"`
	DocumentationCSVURI string `json:"documentation_csv_uri"`
	optionsRequest
}

// GenerateDataset handles POST /api/descriptions/dataset.
func (h *MetadataHandler) GenerateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !h.decode(w, r, &req) {
		return
	}
	ref, err := models.ParseDatasetFQN(req.Dataset)
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	strategy := models.StrategyNaive
	if req.Strategy != "" {
		strategy, err = models.ParseStrategy(req.Strategy)
		if err != nil {
			_ = WriteError(w, err)
			return
		}
	}

	result, err := h.metadata.GenerateDatasetDescriptions(r.Context(), ref, strategy, req.DocumentationCSVURI, req.apply(h.defaults))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

// RegenerateDataset handles POST /api/descriptions/dataset/regenerate.
func (h *MetadataHandler) RegenerateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !h.decode(w, r, &req) {
		return
	}
	ref, err := models.ParseDatasetFQN(req.Dataset)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	result, err := h.metadata.RegenerateDataset(r.Context(), ref, req.apply(h.defaults))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

// Accept handles POST /api/review/accept.
func (h *MetadataHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(target models.MetadataTarget, req *targetRequest) error {
		return h.review.Accept(r.Context(), target, req.apply(h.defaults))
	})
}

// Reject handles POST /api/review/reject.
func (h *MetadataHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(target models.MetadataTarget, req *targetRequest) error {
		return h.review.Reject(r.Context(), target)
	})
}

// MarkForRegeneration handles POST /api/review/regenerate.
func (h *MetadataHandler) MarkForRegeneration(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(target models.MetadataTarget, req *targetRequest) error {
		return h.review.MarkForRegeneration(r.Context(), target)
	})
}

// reviewAction decodes a target request, resolves the table or column
// target and runs the action against it.
func (h *MetadataHandler) reviewAction(w http.ResponseWriter, r *http.Request, action func(models.MetadataTarget, *targetRequest) error) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req, false)
	if !ok {
		return
	}
	if req.Column != "" {
		target = target.WithColumn(req.Column)
	}

	if err := action(target, &req); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

type commentRequest struct {
	targetRequest
	Comment string `json:"comment"`
	Example string `json:"example"`
	URI     string `json:"uri"`
}

// AddComment handles POST /api/review/comment.
func (h *MetadataHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req.targetRequest, false)
	if !ok {
		return
	}
	if req.Column != "" {
		target = target.WithColumn(req.Column)
	}

	if err := h.review.AddComment(r.Context(), target, req.Comment); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

// AddNegativeExample handles POST /api/review/negative-example.
func (h *MetadataHandler) AddNegativeExample(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req.targetRequest, false)
	if !ok {
		return
	}
	if req.Column != "" {
		target = target.WithColumn(req.Column)
	}

	if err := h.review.AddNegativeExample(r.Context(), target, req.Example); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

// AttachDocument handles POST /api/review/document.
func (h *MetadataHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, ok := h.target(w, &req.targetRequest, false)
	if !ok {
		return
	}

	if err := h.review.AttachDocument(r.Context(), target, req.URI); err != nil {
		_ = WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": target.FQN()})
}

type reviewItemResponse struct {
	Target          string   `json:"target"`
	Draft           string   `json:"draft"`
	GenerationDate  string   `json:"generation_date"`
	ToBeRegenerated bool     `json:"to_be_regenerated"`
	HumanComments   []string `json:"human_comments,omitempty"`
}

type reviewItemsResponse struct {
	Items         []reviewItemResponse `json:"items"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

// GetReviewItems handles GET /api/review/items?dataset=project.dataset with
// optional page_size and page_token query parameters.
func (h *MetadataHandler) GetReviewItems(w http.ResponseWriter, r *http.Request) {
	ref, err := models.ParseDatasetFQN(r.URL.Query().Get("dataset"))
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 0 {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "page_size must be a non-negative integer")
			return
		}
	}

	items, nextToken, err := h.review.GetReviewItems(r.Context(), ref, pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	resp := reviewItemsResponse{Items: make([]reviewItemResponse, 0, len(items)), NextPageToken: nextToken}
	for _, item := range items {
		resp.Items = append(resp.Items, reviewItemResponse{
			Target:          item.Target.FQN(),
			Draft:           item.Record.DraftText,
			GenerationDate:  item.Record.GenerationDate.Format(time.RFC3339),
			ToBeRegenerated: item.Record.ToBeRegenerated,
			HumanComments:   item.Record.HumanComments,
		})
	}
	_ = WriteJSON(w, http.StatusOK, resp)
}

// GetReviewDetails handles GET /api/review/details?table=...&column=...
func (h *MetadataHandler) GetReviewDetails(w http.ResponseWriter, r *http.Request) {
	target, err := models.ParseTableFQN(r.URL.Query().Get("table"))
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	if column := r.URL.Query().Get("column"); column != "" {
		target = target.WithColumn(column)
	}

	rec, err := h.review.GetReviewDetails(r.Context(), target)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	payload := rec.ToAspectPayload()
	payload["target"] = target.FQN()
	_ = WriteJSON(w, http.StatusOK, payload)
}
