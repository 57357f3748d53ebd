package httpapi

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/marketpilot/journey-engine/internal/usecase"
)

func (h *Handler) RunRecomputeScoresJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecomputeScoresJob")
	defer span.End()

	var req recomputeScoresRequest
	if r.ContentLength > 0 {
		decoder := jsoniter.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
		if err := h.validateRequest(ctx, req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	result, err := h.recomputeService.Run(ctx, usecase.RecomputeInput{
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute scores job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type recomputeScoresRequest struct {
	MaxWorkers int  `json:"max_workers" validate:"omitempty,min=1,max=32"`
	DryRun     bool `json:"dry_run"`
}
