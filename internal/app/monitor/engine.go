package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/stats"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/player"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// Engine timing defaults.
const (
	DefaultPollInterval     = time.Second
	DefaultPositionInterval = 5 * time.Second
	DefaultHistoryRetention = 90 * 24 * time.Hour

	eventBufferSize = 64
)

// Config carries the engine's tunables. Zero values select the defaults.
type Config struct {
	PollInterval       time.Duration
	PositionInterval   time.Duration
	SessionGap         time.Duration
	MinSessionDuration time.Duration
	SkipThreshold      float64
	HistoryRetention   time.Duration
}

func (c *Config) normalize() error {
	if c.PollInterval < 0 || c.PositionInterval < 0 || c.HistoryRetention < 0 {
		return errors.Wrap(ErrInvalidConfig, "intervals must not be negative")
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PositionInterval == 0 {
		c.PositionInterval = DefaultPositionInterval
	}
	if c.SkipThreshold == 0 {
		c.SkipThreshold = DefaultSkipThreshold
	}
	if c.HistoryRetention == 0 {
		c.HistoryRetention = DefaultHistoryRetention
	}
	return nil
}

// Engine drives the monitoring loop: it polls the snapshot provider on a
// fixed cadence, detects track and phase changes, maintains the session
// state machine, and hands finalized sessions to the aggregator. One mutex
// guards all mutable state; every decision in a tick happens under it.
type Engine struct {
	mu sync.Mutex

	cfg        Config
	clock      clockwork.Clock
	provider   SnapshotProvider
	aggregator *stats.Aggregator
	scheduler  *stats.Scheduler
	session    *SessionTracker

	state              State
	lastSnapshot       *player.Snapshot
	stoppedSince       time.Time
	lastPositionSample time.Time

	eventCh chan Event
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// NewEngine creates a monitoring engine. The provider and aggregator are
// required; clock may be nil for the real clock.
func NewEngine(cfg Config, provider SnapshotProvider, aggregator *stats.Aggregator, scheduler *stats.Scheduler, clock clockwork.Clock) (*Engine, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "snapshot provider is required")
	}
	if aggregator == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "aggregator is required")
	}
	if scheduler == nil {
		scheduler = stats.NewScheduler(0, 0)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	acc, err := NewAccountant(cfg.SkipThreshold)
	if err != nil {
		return nil, err
	}
	tracker, err := NewSessionTracker(acc, cfg.SessionGap, cfg.MinSessionDuration)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:        cfg,
		clock:      clock,
		provider:   provider,
		aggregator: aggregator,
		scheduler:  scheduler,
		session:    tracker,
		state:      StateNotMonitoring,
		eventCh:    make(chan Event, eventBufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Events returns the engine's notification channel. Events are dropped,
// not blocked on, when no one is draining it.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// State returns the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SessionState returns the session lifecycle state.
func (e *Engine) SessionState() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State()
}

// Start launches the poll loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateNotMonitoring {
		return ErrAlreadyMonitoring
	}

	loopCtx, loopCancel := context.WithCancel(e.ctx)
	e.loopCancel = loopCancel
	e.loopDone = make(chan struct{})
	e.state = StateMonitoring
	e.lastSnapshot = nil
	e.stoppedSince = time.Time{}
	e.lastPositionSample = time.Time{}

	go e.pollLoop(loopCtx)

	zlog.Info().Msgf("monitoring started (poll interval %v)", e.cfg.PollInterval)
	return nil
}

// Pause suspends polling without discarding tracker state. The open track
// and session are finalized as if playback paused.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateMonitoring {
		return ErrNotMonitoring
	}
	now := e.clock.Now()
	if p := e.session.Pause(now); p != nil {
		e.emitTrackEndedLocked(p)
	}
	e.state = StateMonitoringPaused
	zlog.Info().Msg("monitoring paused")
	return nil
}

// Resume continues polling after Pause.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateMonitoringPaused {
		return ErrNotPaused
	}
	e.state = StateMonitoring
	e.lastSnapshot = nil
	zlog.Info().Msg("monitoring resumed")
	return nil
}

// Stop finalizes any open track and session, then halts the poll loop.
// It blocks until the loop goroutine has exited.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == StateNotMonitoring {
		e.mu.Unlock()
		return ErrNotMonitoring
	}
	e.finalizeAllLocked(e.clock.Now())
	e.state = StateNotMonitoring
	loopCancel, loopDone := e.loopCancel, e.loopDone
	e.loopCancel, e.loopDone = nil, nil
	e.mu.Unlock()

	if loopCancel != nil {
		loopCancel()
	}
	if loopDone != nil {
		<-loopDone
	}
	zlog.Info().Msg("monitoring stopped")
	return nil
}

// Close releases the engine and closes the event channel. A running loop is
// stopped first. Safe to call more than once.
func (e *Engine) Close() error {
	if err := e.Stop(); err != nil && !errors.Is(err, ErrNotMonitoring) {
		return err
	}
	e.cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.eventCh)
	}
	return nil
}

// HandleGrantExpiration reacts to the host revoking the engine's execution
// window: the open track and session are finalized synchronously, so their
// events are already queued when this returns.
func (e *Engine) HandleGrantExpiration() {
	e.mu.Lock()
	defer e.mu.Unlock()

	zlog.Warn().Msg("execution grant expiring, finalizing state")
	e.finalizeAllLocked(e.clock.Now())
	e.emitErrorLocked(errors.Wrap(ErrExecutionExpired, "execution grant revoked by host"))
}

// WatchGrants consumes grant signals until the engine is closed. A started
// signal restarts a stopped loop; an expiring signal finalizes state.
func (e *Engine) WatchGrants(n GrantNotifier) {
	go func() {
		for {
			select {
			case <-e.ctx.Done():
				return
			case sig, ok := <-n.Signals():
				if !ok {
					return
				}
				switch sig {
				case GrantStarted:
					if err := e.Start(); err != nil && !errors.Is(err, ErrAlreadyMonitoring) {
						zlog.Error().Msgf("restart on grant failed: %v", err)
					}
				case GrantExpiring:
					e.HandleGrantExpiration()
				}
			}
		}
	}()
}

func (e *Engine) pollLoop(ctx context.Context) {
	defer close(e.loopDoneRef())

	ticker := e.clock.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !e.tick(ctx) {
				return
			}
		}
	}
}

// loopDoneRef snapshots the done channel so Stop can nil the field while
// the loop is still draining.
func (e *Engine) loopDoneRef() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loopDone
}

// tick runs one monitoring cycle. Returns false when the loop must exit.
func (e *Engine) tick(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateNotMonitoring:
		return false
	case StateMonitoringPaused:
		return true
	}

	now := e.clock.Now()
	snap, err := e.provider.Poll(ctx)
	if err != nil {
		return e.handlePollErrorLocked(err, now)
	}

	e.applySnapshotLocked(snap, now)
	e.maybeProcessStatsLocked(now)
	return true
}

// handlePollErrorLocked classifies a provider failure. Authorization loss
// finalizes everything and stops the loop; transient failures keep the
// previous state and retry on the next tick.
func (e *Engine) handlePollErrorLocked(err error, now time.Time) bool {
	category, _, retryable := Classify(err)
	e.emitErrorLocked(err)

	if !retryable {
		zlog.Error().Msgf("unrecoverable poll failure (%s): %v", category, err)
		e.finalizeAllLocked(now)
		e.state = StateNotMonitoring
		return false
	}
	zlog.Warn().Msgf("poll failed (%s), retrying: %v", category, err)
	return true
}

func (e *Engine) applySnapshotLocked(snap *player.Snapshot, now time.Time) {
	prev := e.lastSnapshot
	e.lastSnapshot = snap

	if snap.Phase != player.PhaseStopped {
		e.stoppedSince = time.Time{}
	}

	// A new track while the player is active starts a playback, opening a
	// session first when the gap rule calls for one.
	if snap.Phase.Active() && snap.Track != nil {
		changed := prev == nil || prev.Track == nil || !prev.Track.Same(snap.Track)
		if changed {
			e.startTrackLocked(*snap.Track, snap.Position, now)
		}
	}

	e.applyPhaseLocked(prev, snap, now)

	if snap.Phase.Active() && e.session.State() == SessionActive {
		e.session.Touch(now)
		e.samplePositionLocked(snap, now)
	}

	// A stop that persists past the session gap ends the session.
	if snap.Phase == player.PhaseStopped && !e.stoppedSince.IsZero() &&
		now.Sub(e.stoppedSince) > e.session.gap {
		e.endSessionLocked(now)
		e.stoppedSince = time.Time{}
	}
}

func (e *Engine) applyPhaseLocked(prev, snap *player.Snapshot, now time.Time) {
	prevPhase := player.PhaseStopped
	if prev != nil {
		prevPhase = prev.Phase
	}
	if prev != nil && prevPhase == snap.Phase {
		return
	}

	switch snap.Phase {
	case player.PhasePlaying, player.PhaseSeekingForward, player.PhaseSeekingBackward:
		e.session.Resume(now)
	case player.PhasePaused, player.PhaseInterrupted:
		if p := e.session.Pause(now); p != nil {
			e.emitTrackEndedLocked(p)
		}
	case player.PhaseStopped:
		if p := e.session.FinalizeCurrent(now); p != nil {
			e.emitTrackEndedLocked(p)
		}
		if e.stoppedSince.IsZero() {
			e.stoppedSince = now
		}
	}
}

// startTrackLocked opens a playback for t, rolling the session over first
// when the boundary rule demands it.
func (e *Engine) startTrackLocked(t track.Track, pos time.Duration, now time.Time) {
	if e.session.NeedsNewSession(now) {
		e.endSessionLocked(now)
		e.session.Start(now)
		e.sendEventLocked(Event{
			Type: EventSessionStarted,
			Payload: flatten(SessionStartedPayload{
				SessionID: e.session.ID(),
				StartedAt: now.UnixMilli(),
			}),
		})
		zlog.Info().Msgf("session %s started", e.session.ID())
	}

	started, finalized := e.session.StartTrack(t, now)
	if finalized != nil {
		e.emitTrackEndedLocked(finalized)
	}
	e.session.accountant.RecordProgress(pos, now)
	e.lastPositionSample = now

	e.sendEventLocked(Event{
		Type: EventTrackStarted,
		Payload: flatten(TrackStartedPayload{
			SessionID:  e.session.ID(),
			TrackID:    started.Track.ID,
			TrackName:  started.Track.Name,
			Artist:     started.Track.PrimaryArtist(),
			Album:      started.Track.Album,
			DurationMS: started.Track.Duration.Milliseconds(),
		}),
	})
	zlog.Debug().Msgf("track started: %s - %s", started.Track.PrimaryArtist(), started.Track.Name)
}

// samplePositionLocked feeds the playing position into the accountant on
// the sub-sampled cadence.
func (e *Engine) samplePositionLocked(snap *player.Snapshot, now time.Time) {
	if snap.Phase != player.PhasePlaying {
		return
	}
	if !e.lastPositionSample.IsZero() && now.Sub(e.lastPositionSample) < e.cfg.PositionInterval {
		return
	}
	e.session.accountant.RecordProgress(snap.Position, now)
	e.lastPositionSample = now
}

// endSessionLocked finalizes the open session, if any, and feeds the record
// to the aggregator.
func (e *Engine) endSessionLocked(now time.Time) {
	rec, finalized := e.session.End(now)
	if rec == nil {
		return
	}
	if finalized != nil {
		e.emitTrackEndedLocked(finalized)
	}
	e.aggregator.Ingest(rec)
	e.sendEventLocked(Event{
		Type: EventSessionEnded,
		Payload: flatten(SessionEndedPayload{
			SessionID:  rec.ID,
			DurationMS: rec.Duration.Milliseconds(),
			SongCount:  rec.SongCount,
			PlayCount:  rec.PlayCount,
			SkipCount:  rec.SkipCount,
			ListenedMS: rec.TotalListening.Milliseconds(),
			Valid:      rec.Valid,
		}),
		Record: rec,
	})
	zlog.Info().Msgf("session %s ended: %d songs, %v listened, valid=%v",
		rec.ID, rec.SongCount, rec.TotalListening, rec.Valid)
}

// finalizeAllLocked closes the open track and session in order.
func (e *Engine) finalizeAllLocked(now time.Time) {
	e.endSessionLocked(now)
	e.lastSnapshot = nil
	e.stoppedSince = time.Time{}
}

func (e *Engine) maybeProcessStatsLocked(now time.Time) {
	if e.scheduler.ShouldProcessStats(now) {
		records := e.aggregator.Records()
		weekly := stats.WeeklySnapshot(records, now)
		monthly := stats.MonthlySnapshot(records, now)
		e.aggregator.SetSnapshots(weekly, monthly)
		e.scheduler.MarkStatsProcessed(now)

		overall := e.aggregator.Overall()
		e.sendEventLocked(Event{
			Type: EventStatsUpdated,
			Payload: flatten(StatsUpdatedPayload{
				Sessions:      overall.TotalSessions,
				PlayTimeMS:    overall.TotalPlayTime.Milliseconds(),
				CurrentStreak: overall.CurrentStreakDays,
				LongestStreak: overall.LongestStreakDays,
			}),
			Weekly:  weekly,
			Monthly: monthly,
		})
		zlog.Debug().Msgf("stats processed: %d sessions total", overall.TotalSessions)
	}

	if e.scheduler.ShouldCleanup(now) {
		removed := e.aggregator.Prune(now.Add(-e.cfg.HistoryRetention))
		e.scheduler.MarkCleanedUp(now)
		if removed > 0 {
			zlog.Info().Msgf("history cleanup removed %d sessions", removed)
		}
	}
}

func (e *Engine) emitTrackEndedLocked(p *track.Playback) {
	e.sendEventLocked(Event{
		Type: EventTrackEnded,
		Payload: flatten(TrackEndedPayload{
			SessionID:  e.session.ID(),
			TrackID:    p.Track.ID,
			TrackName:  p.Track.Name,
			ListenedMS: p.Listened.Milliseconds(),
			Skipped:    p.Skipped,
		}),
	})
	zlog.Debug().Msgf("track ended: %s (listened %v, skipped=%v)", p.Track.Name, p.Listened, p.Skipped)
}

func (e *Engine) emitErrorLocked(err error) {
	category, recoverable, retryable := Classify(err)
	e.sendEventLocked(Event{
		Type: EventErrorOccurred,
		Payload: flatten(ErrorPayload{
			Category:    string(category),
			Message:     err.Error(),
			Recoverable: recoverable,
			Retryable:   retryable,
		}),
	})
}

// sendEventLocked delivers an event without blocking; a full channel drops
// the event.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	default:
		zlog.Warn().Msgf("event channel full, dropping %s", ev.Type)
	}
}
