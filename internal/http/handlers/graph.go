package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/http/response"
	"github.com/yungbote/graphloader/internal/modules/ingestion/source"
	"github.com/yungbote/graphloader/internal/platform/apierr"
	"github.com/yungbote/graphloader/internal/platform/logger"
)

const maxIngestBody = 32 << 20

type GraphService interface {
	IngestSource(ctx context.Context, src source.Source) (kg.BatchResult, error)
	Statistics(ctx context.Context) (kg.Stats, error)
	Entity(ctx context.Context, name string) (kg.Entity, bool, error)
	Edges(ctx context.Context, start, relationship, end string) ([]kg.Edge, error)
	Clear(ctx context.Context) error
}

type GraphHandlerDeps struct {
	Log     *logger.Logger
	Service GraphService
}

type GraphHandler struct {
	log *logger.Logger
	svc GraphService
}

func NewGraphHandler(deps GraphHandlerDeps) *GraphHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &GraphHandler{log: log.With("handler", "GraphHandler"), svc: deps.Service}
}

type ingestResponse struct {
	Source   string         `json:"source"`
	Status   runlog.Status  `json:"status"`
	Result   kg.BatchResult `json:"result"`
	Repaired bool           `json:"repaired,omitempty"`
}

// POST /api/sources/:tag/triples
func (h *GraphHandler) IngestTriples(c *gin.Context) {
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_source_tag", errors.New("source tag required"))
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBody))
	if err != nil {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "body_too_large", err)
		return
	}
	src, err := source.Decode(tag, raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	res, err := h.svc.IngestSource(c.Request.Context(), src)
	if err != nil {
		response.RespondAPIError(c, apierr.FromStore("ingest_failed", err))
		return
	}
	response.RespondOK(c, ingestResponse{
		Source:   tag,
		Status:   runlog.StatusFor(res),
		Result:   res,
		Repaired: src.Repaired,
	})
}

// GET /api/stats
func (h *GraphHandler) Stats(c *gin.Context) {
	st, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, apierr.FromStore("stats_failed", err))
		return
	}
	response.RespondOK(c, gin.H{"stats": st})
}

// GET /api/entities/:name
func (h *GraphHandler) GetEntity(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	e, ok, err := h.svc.Entity(c.Request.Context(), name)
	if err != nil {
		response.RespondAPIError(c, apierr.FromStore("entity_lookup_failed", err))
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "entity_not_found", errors.New("entity not found"))
		return
	}
	response.RespondOK(c, gin.H{"entity": e})
}

// GET /api/edges?start=&relationship=&end=
// Omitted parameters match anything; at least one is required.
func (h *GraphHandler) ListEdges(c *gin.Context) {
	start := strings.TrimSpace(c.Query("start"))
	rel := strings.TrimSpace(c.Query("relationship"))
	end := strings.TrimSpace(c.Query("end"))
	if start == "" && rel == "" && end == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_edge_query", errors.New("one of start, relationship or end is required"))
		return
	}
	edges, err := h.svc.Edges(c.Request.Context(), start, rel, end)
	if err != nil {
		response.RespondAPIError(c, apierr.FromStore("edge_lookup_failed", err))
		return
	}
	response.RespondOK(c, gin.H{"edges": edges})
}

// DELETE /api/graph?confirm=true
func (h *GraphHandler) ClearGraph(c *gin.Context) {
	if c.Query("confirm") != "true" {
		response.RespondError(c, http.StatusBadRequest, "confirmation_required", errors.New("pass confirm=true to delete every node and edge"))
		return
	}
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		response.RespondAPIError(c, apierr.FromStore("clear_failed", err))
		return
	}
	h.log.Warn("graph cleared via API")
	c.Status(http.StatusNoContent)
}
