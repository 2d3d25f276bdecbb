package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calc/internal/handlers"
	"keypad-calc/internal/keypad"
	"keypad-calc/internal/observability"
)

const (
	// maxKeysPerRequest bounds the batch accepted by PressKeys.
	maxKeysPerRequest = 256
	// maxKeysBodyBytes bounds the PressKeys request body.
	maxKeysBodyBytes = 64 << 10
)

// Handler serves the session endpoints.
type Handler struct {
	store  *Store
	keymap *keypad.Keymap
}

func NewHandler(store *Store, keymap *keypad.Keymap) *Handler {
	return &Handler{store: store, keymap: keymap}
}

// Create handles POST /sessions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "session.create")
	defer span.End()

	snap := h.store.Create(ctx)
	span.SetAttributes(attribute.String("session.id", snap.ID))

	handlers.WriteJSON(w, http.StatusCreated, snap)
}

// Get handles GET /sessions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "session.get", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	snap, err := h.store.Snapshot(id)
	if err != nil {
		h.fail(ctx, span, w, "get", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, snap)
}

// Delete handles DELETE /sessions/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "session.delete", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	if err := h.store.Delete(ctx, id); err != nil {
		h.fail(ctx, span, w, "delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /sessions/{id}/keys — applies a batch of key
// glyphs in order. The whole batch is rejected if any glyph is unknown.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "session.keys", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	var req KeysRequest
	body := http.MaxBytesReader(w, r.Body, maxKeysBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			observability.RecordError(ctx, span, logger, errorCounter, "keys", "request body too large", err, http.StatusRequestEntityTooLarge, w)
			return
		}
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if len(req.Keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "no keys provided", fmt.Errorf("keys array is empty"), http.StatusBadRequest, w)
		return
	}
	if len(req.Keys) > maxKeysPerRequest {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "too many keys", fmt.Errorf("%d keys, limit %d", len(req.Keys), maxKeysPerRequest), http.StatusBadRequest, w)
		return
	}

	keys, err := h.keymap.Parse(req.Keys)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(attribute.Int("keys.count", len(keys)))

	steps, snap, err := h.store.Press(ctx, id, keys...)
	if err != nil {
		h.fail(ctx, span, w, "keys", err)
		return
	}

	span.SetStatus(codes.Ok, "")

	logger.Debug("keys applied",
		zap.String("session_id", id),
		zap.Int("keys", len(keys)),
		zap.String("history", snap.Display.History),
		zap.String("current", snap.Display.Current),
	)

	handlers.WriteJSON(w, http.StatusOK, KeysResponse{Snapshot: snap, Steps: steps})
}

// ToggleSound handles POST /sessions/{id}/sound
func (h *Handler) ToggleSound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "session.sound", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	muted, err := h.store.ToggleSound(id)
	if err != nil {
		h.fail(ctx, span, w, "sound", err)
		return
	}

	span.SetAttributes(attribute.Bool("session.muted", muted))
	handlers.WriteJSON(w, http.StatusOK, SoundResponse{ID: id, Muted: muted})
}

// fail maps store errors to HTTP statuses.
func (h *Handler) fail(ctx context.Context, span trace.Span, w http.ResponseWriter, opName string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	if errors.Is(err, ErrSessionNotFound) {
		status, msg = http.StatusNotFound, ErrSessionNotFound.Error()
	}
	observability.RecordError(ctx, span, observability.LoggerWithTrace(ctx), errorCounter, opName, msg, err, status, w)
}
