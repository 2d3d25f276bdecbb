package session

import (
	"context"

	"go.uber.org/zap"

	"keypad-calc/internal/calculator"
	"keypad-calc/internal/observability"
)

// Feedback is the per-key side channel (a click sound on a real keypad).
// It fires once per key event regardless of outcome and must not block.
type Feedback interface {
	KeyPressed(ctx context.Context, sessionID string, k calculator.Key)
}

// FeedbackFunc adapts a function to Feedback.
type FeedbackFunc func(ctx context.Context, sessionID string, k calculator.Key)

func (f FeedbackFunc) KeyPressed(ctx context.Context, sessionID string, k calculator.Key) {
	f(ctx, sessionID, k)
}

// LogFeedback records a debug "click" entry per key.
type LogFeedback struct{}

func (LogFeedback) KeyPressed(ctx context.Context, sessionID string, k calculator.Key) {
	observability.LoggerWithTrace(ctx).Debug("key click",
		zap.String("session_id", sessionID),
		zap.Stringer("key", k),
	)
}
