// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	repository "github.com/okian/mvp/internal/adapters/repository"
	"github.com/okian/mvp/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExamplesHandler handles the /api/examples routes.
type ExamplesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewExamplesHandler creates a new examples handler.
func NewExamplesHandler(deps Dependencies, l logger.Logger) *ExamplesHandler {
	return &ExamplesHandler{deps: deps, logger: l}
}

// HandleList handles GET /api/examples requests.
func (h *ExamplesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_examples"
	ctx := r.Context()

	records, err := h.deps.ListExamples(ctx)
	if err != nil {
		h.logger.Error(ctx, "error getting all examples", logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGet handles GET /api/examples/{id} requests.
func (h *ExamplesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_example"
	ctx := r.Context()
	id := r.PathValue("id")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("example.id", id))

	record, err := h.deps.GetExample(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn(ctx, "example not found", logger.String("id", id), logger.Error(Wrap(op, err)))
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error(ctx, "error getting example by id", logger.String("id", id), logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
