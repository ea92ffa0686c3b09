package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepdeck/coach-engine/internal/machine"
	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/session"
	"github.com/prepdeck/coach-engine/internal/signals"
	"github.com/prepdeck/coach-engine/internal/ticklog"
	"github.com/prepdeck/coach-engine/internal/transcript"
)

// #region engine

// Engine is the signal-to-feedback pipeline: it normalizes raw samples,
// aggregates scores, drives the coaching state machine, and maintains
// per-session state. Evaluation never performs I/O beyond the optional
// tick log.
type Engine struct {
	normalizer *signals.Normalizer
	aggregator *score.Aggregator
	machine    *machine.Machine
	analyzer   *transcript.Analyzer
	provider   *rules.Provider
	sessions   *session.Store
	ticks      *ticklog.Log // nil disables tick logging
	log        *logrus.Logger
	now        func() time.Time
}

// New creates an Engine over the given rule provider. ticks and log may be nil.
func New(provider *rules.Provider, ticks *ticklog.Log, log *logrus.Logger, opts Options) *Engine {
	if log == nil {
		log = logrus.New()
	}
	capacity := opts.HistoryCapacity
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Engine{
		normalizer: signals.NewNormalizer(),
		aggregator: score.NewAggregator(opts.Score),
		machine:    machine.NewMachine(opts.Machine),
		analyzer:   transcript.NewAnalyzer(opts.ExtraFillers...),
		provider:   provider,
		sessions:   session.NewStore(capacity),
		ticks:      ticks,
		log:        log,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// #endregion engine

// #region sessions

// CreateSession mints a new session id. The session enters its initial state
// on its first tick; until then the default state's response is advertised.
func (e *Engine) CreateSession() (string, rules.StateDefinition) {
	id := uuid.NewString()
	e.sessions.Get(id)
	def := e.provider.Table().Default()
	e.log.WithFields(logrus.Fields{"session": id, "state": def.ID}).Info("session created")
	return id, def
}

// Session returns a snapshot of the session. ok is false for unknown ids.
// Safe to call while ticks for the same session are in flight.
func (e *Engine) Session(id string) (SessionInfo, bool) {
	snap, ok := e.sessions.Snapshot(id)
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		SessionID:      snap.ID,
		StateID:        snap.CurrentStateID,
		EnteredStateAt: snap.EnteredStateAt,
		CreatedAt:      snap.CreatedAt,
		HistoryLen:     snap.HistoryLen,
	}, true
}

// CloseSession removes the session. Unknown ids are a no-op.
func (e *Engine) CloseSession(id string) {
	e.sessions.Remove(id)
	e.log.WithField("session", id).Info("session closed")
}

// ReloadRules atomically swaps in a freshly loaded rule table.
func (e *Engine) ReloadRules() error {
	if err := e.provider.Reload(); err != nil {
		return err
	}
	e.log.WithField("states", len(e.provider.Table().States())).Info("rules reloaded")
	return nil
}

// #endregion sessions

// #region ingest

// Ingest evaluates one tick for the session: normalize → aggregate → evaluate.
// Unknown session ids transparently create a fresh session. Any subset of
// signal fields, including the empty sample, is accepted.
func (e *Engine) Ingest(sessionID string, raw signals.RawSample) CoachingResponse {
	now := e.now()
	table := e.provider.Table()

	var stats transcript.Stats
	if len(raw.Transcript) > 0 {
		stats = e.analyzer.Analyze(raw.Transcript)
		raw = raw.WithTranscriptStats(stats)
	}

	var resp CoachingResponse
	e.sessions.Mutate(sessionID, func(st *session.State) {
		var prior *signals.MetricVector
		if st.HasVector {
			prior = &st.LastVector
		}
		vec := e.normalizer.Normalize(raw, prior)
		scores := e.aggregator.Aggregate(vec, st.History.Items(), now)

		fromState := st.CurrentStateID
		out := e.machine.Evaluate(st, vec, scores, table, now)

		st.LastVector = vec
		st.HasVector = true

		resp = CoachingResponse{
			SessionID:  sessionID,
			StateID:    out.StateID,
			StateName:  out.StateName,
			VoiceLine:  out.Response.VoiceLine,
			Subtitle:   out.Response.Subtitle,
			Tip:        out.Response.Tip,
			Confidence: scores.Confidence,
			Anxiety:    scores.Anxiety,
			Decision:   string(out.Decision),
			Highlights: stats.Highlights,
		}

		e.recordTick(fromState, out, scores, sessionID, now)
	})

	e.log.WithFields(logrus.Fields{
		"session":    sessionID,
		"state":      resp.StateID,
		"decision":   resp.Decision,
		"confidence": resp.Confidence,
		"anxiety":    resp.Anxiety,
	}).Debug("tick evaluated")

	return resp
}

// recordTick appends to the tick log when configured. Logging failures are
// reported but never fail the tick.
func (e *Engine) recordTick(fromState string, out machine.Outcome, scores score.ScorePair, sessionID string, now time.Time) {
	if e.ticks == nil {
		return
	}
	err := e.ticks.Record(ticklog.Entry{
		SessionID:  sessionID,
		FromState:  fromState,
		ToState:    out.StateID,
		Decision:   string(out.Decision),
		Reason:     out.Reason,
		Confidence: scores.Confidence,
		Anxiety:    scores.Anxiety,
		CreatedAt:  now.UTC(),
	})
	if err != nil {
		e.log.WithError(err).Warn("tick log write failed")
	}
}

// #endregion ingest
