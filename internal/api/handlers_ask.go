package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/logger"
	"github.com/dgallion1/docqa/internal/pipeline"
)

type askRequest struct {
	Question       string `json:"question"`
	ChunkSize      int    `json:"chunk_size"`
	ShowConfidence *bool  `json:"show_confidence"` // default true
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	show := true
	if req.ShowConfidence != nil {
		show = *req.ShowConfidence
	}

	ctx := logger.WithFields(r.Context(), zap.String("session_id", sess.ID))
	res, err := s.orchestrator.Ask(ctx, sess, pipeline.Query{
		Question:       req.Question,
		ChunkSize:      req.ChunkSize,
		ShowConfidence: show,
	})
	if err != nil {
		s.writeAskError(ctx, w, sess, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":  sess.State(),
		"result": res,
	})
}

func (s *Server) writeAskError(ctx context.Context, w http.ResponseWriter, sess *pipeline.Session, err error) {
	state := sess.State()
	if errors.Is(err, pipeline.ErrBusy) {
		writeFailure(w, http.StatusConflict, "busy", "A question is already being answered.", state)
		return
	}

	kind := pipeline.KindOf(err)
	code := http.StatusInternalServerError
	switch kind {
	case pipeline.KindInvalidArgument:
		code = http.StatusBadRequest
	case pipeline.KindInvalidInput:
		code = http.StatusUnprocessableEntity
	case pipeline.KindNoRelevantChunk:
		code = http.StatusNotFound
	case pipeline.KindOracleUnavailable:
		code = http.StatusServiceUnavailable
		logger.FromContext(ctx).Warn("oracle unavailable", zap.Error(err))
	default:
		logger.FromContext(ctx).Error("ask failed", zap.Error(err))
	}

	message := pipeline.Message(kind)
	if kind == pipeline.KindInvalidArgument {
		message = err.Error()
	}
	label := string(kind)
	if label == "" {
		label = "internal"
	}
	writeFailure(w, code, label, message, state)
}
