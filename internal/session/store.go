package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calc/internal/calculator"
	"keypad-calc/internal/observability"
)

// tracer is the session layer's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID      string             `json:"id"`
	Display calculator.Display `json:"display"`
	Muted   bool               `json:"muted"`
}

// Step records one key event applied by Press.
type Step struct {
	Key     string             `json:"key"`
	Outcome string             `json:"outcome"`
	Display calculator.Display `json:"display"`
}

// session owns one engine. Its mutex serializes key events so the engine
// itself never sees concurrent calls.
type session struct {
	id       string
	mu       sync.Mutex
	engine   *calculator.Engine
	muted    bool
	lastUsed atomic.Int64
}

func (s *session) snapshot() Snapshot {
	return Snapshot{ID: s.id, Display: s.engine.Render(), Muted: s.muted}
}

// Store keeps calculator sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	engineOpts []calculator.Option
	feedback   Feedback
	idleTTL    time.Duration
	now        func() time.Time
}

type Option func(*Store)

// WithEngineOptions configures every engine the store creates.
func WithEngineOptions(opts ...calculator.Option) Option {
	return func(s *Store) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

func WithFeedback(f Feedback) Option {
	return func(s *Store) {
		if f != nil {
			s.feedback = f
		}
	}
}

// WithIdleTTL sets how long a session may stay unused before Sweep evicts it.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session),
		feedback: LogFeedback{},
		idleTTL:  30 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session with a fresh engine.
func (s *Store) Create(ctx context.Context) Snapshot {
	sess := &session{
		id:     uuid.New().String(),
		engine: calculator.New(s.engineOpts...),
	}
	sess.lastUsed.Store(s.now().UnixNano())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	activeSessions.Inc()
	sessionsCreated.Inc()

	observability.LoggerWithTrace(ctx).Info("session created",
		zap.String("session_id", sess.id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	return sess.snapshot()
}

func (s *Store) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Snapshot returns the current display of a session.
func (s *Store) Snapshot(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.snapshot(), nil
}

// Press applies keys to a session in order, each to completion, and returns
// the outcome of every key along with the final snapshot.
func (s *Store) Press(ctx context.Context, id string, keys ...calculator.Key) ([]Step, Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, Snapshot{}, err
	}

	logger := observability.LoggerWithTrace(ctx)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastUsed.Store(s.now().UnixNano())

	steps := make([]Step, 0, len(keys))
	for i, k := range keys {
		steps = append(steps, s.press(ctx, logger, sess, i, k))
	}

	return steps, sess.snapshot(), nil
}

// press handles one key under the session lock, wrapped in its own span.
func (s *Store) press(ctx context.Context, logger *zap.Logger, sess *session, i int, k calculator.Key) Step {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.key.%s", k.Kind),
		trace.WithAttributes(
			attribute.String("session.id", sess.id),
			attribute.Int("key.index", i),
			attribute.String("key", k.String()),
		),
	)
	defer span.End()

	before := sess.engine.State()

	start := time.Now()
	outcome := sess.engine.HandleKey(k)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6 // ms

	after := sess.engine.State()
	display := sess.engine.Render()

	if !sess.muted {
		s.feedback.KeyPressed(ctx, sess.id, k)
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", k.Kind.String()),
		attribute.String("outcome", outcome.String()),
	)
	keysCounter.Add(ctx, 1, attrs)
	keyHistogram.Record(ctx, elapsed, attrs)

	span.SetAttributes(attribute.String("key.outcome", outcome.String()))

	switch outcome {
	case calculator.OutcomeEvaluated:
		opAttrs := metric.WithAttributes(attribute.String("operation", before.Pending.String()))
		evalCounter.Add(ctx, 1, opAttrs)
		if result, err := strconv.ParseFloat(after.OperandA, 64); err == nil {
			resultGauge.Record(ctx, result, opAttrs)
		}

		span.AddEvent("expression.evaluated", trace.WithAttributes(
			attribute.String("operation", before.Pending.String()),
			attribute.String("result", after.OperandA),
		))

		logger.Info("expression evaluated",
			zap.String("session_id", sess.id),
			zap.String("operation", before.Pending.String()),
			zap.String("a", before.OperandA),
			zap.String("b", before.OperandB),
			zap.String("result", after.OperandA),
		)

	case calculator.OutcomeFault:
		errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", before.Pending.String()),
			attribute.String("fault", after.Fault.String()),
		))

		span.SetStatus(codes.Error, after.Fault.Text())

		logger.Warn("expression has no result",
			zap.String("session_id", sess.id),
			zap.String("operation", before.Pending.String()),
			zap.String("a", before.OperandA),
			zap.String("b", before.OperandB),
			zap.Stringer("fault", after.Fault),
		)
	}

	return Step{Key: k.String(), Outcome: outcome.String(), Display: display}
}

// ToggleSound flips the mute flag of a session and returns the new value.
func (s *Store) ToggleSound(id string) (bool, error) {
	sess, err := s.get(id)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.muted = !sess.muted
	sess.lastUsed.Store(s.now().UnixNano())
	return sess.muted, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	activeSessions.Dec()
	observability.LoggerWithTrace(ctx).Info("session deleted", zap.String("session_id", id))
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions unused since now minus the idle TTL and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Load() < cutoff {
			delete(s.sessions, id)
			evicted++
		}
	}

	activeSessions.Sub(float64(evicted))
	sessionsEvicted.Add(float64(evicted))
	return evicted
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				observability.Logger.Info("idle sessions evicted",
					zap.Int("evicted", n),
					zap.Int("remaining", s.Len()),
				)
			}
		}
	}
}
