package service

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

type TimerMode string

const (
	ModeStopwatch TimerMode = "stopwatch"
	ModeCountdown TimerMode = "countdown"
)

const (
	maxCountdownMinutes = 1440
	// saveEvery is how many tracked seconds may accumulate before stats are
	// written back to the store.
	saveEvery = 30
)

// TimerState is what the chat surface renders.
type TimerState struct {
	Active         bool
	Mode           TimerMode
	Seconds        int
	InitialSeconds int
}

// TimerService is the focus timer. Every active second is credited to the
// acting identity's study time.
type TimerService struct {
	view    *state.View
	stats   StatsStore
	alerter Alerter
	clock   Clock

	// mu also covers store writes so a concurrent stats refresh never sees
	// a half-saved total.
	mu          sync.Mutex
	state       TimerState
	unsaved     int64
	pendingUser model.UserID
}

func NewTimerService(view *state.View, stats StatsStore, alerter Alerter, clock Clock) *TimerService {
	return &TimerService{
		view:    view,
		stats:   stats,
		alerter: alerter,
		clock:   clock,
		state:   TimerState{Mode: ModeStopwatch},
	}
}

func (s *TimerService) State() TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UseStopwatch switches to counting up from zero, stopped.
func (s *TimerService) UseStopwatch() TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = TimerState{Mode: ModeStopwatch}
	return s.state
}

// SetCountdown switches to a stopped countdown of minutes, clamped to one
// day.
func (s *TimerService) SetCountdown(minutes int) (TimerState, error) {
	if minutes <= 0 {
		return s.State(), ErrInvalidMinutes
	}
	if minutes > maxCountdownMinutes {
		minutes = maxCountdownMinutes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	secs := minutes * 60
	s.state = TimerState{Mode: ModeCountdown, Seconds: secs, InitialSeconds: secs}
	return s.state, nil
}

func (s *TimerService) Start() TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode == ModeCountdown && s.state.Seconds == 0 {
		return s.state
	}
	s.state.Active = true
	return s.state
}

// Stop pauses the timer and flushes tracked time.
func (s *TimerService) Stop(ctx context.Context) (TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Active = false
	return s.state, s.flushLocked(ctx)
}

// Reset stops the timer and rewinds it to its starting value.
func (s *TimerService) Reset(ctx context.Context) (TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Active = false
	if s.state.Mode == ModeCountdown {
		s.state.Seconds = s.state.InitialSeconds
	} else {
		s.state.Seconds = 0
	}
	return s.state, s.flushLocked(ctx)
}

// Tick advances the timer by one second. It is a no-op while stopped.
func (s *TimerService) Tick(ctx context.Context) TimerState {
	s.mu.Lock()
	if !s.state.Active {
		st := s.state
		s.mu.Unlock()
		return st
	}
	finished := false
	if s.state.Mode == ModeCountdown {
		s.state.Seconds--
		if s.state.Seconds <= 0 {
			s.state.Active = false
			s.state.Seconds = s.state.InitialSeconds
			finished = true
		}
	} else {
		s.state.Seconds++
	}

	user := s.view.Settings().CurrentUserID
	if s.unsaved > 0 && user != s.pendingUser {
		if err := s.flushLocked(ctx); err != nil {
			log.WithError(err).WithField("user", s.pendingUser).Warn("dropping unsaved study time after identity switch")
			s.unsaved = 0
		}
	}
	s.pendingUser = user
	today := s.clock.Today()
	s.view.UpdateStats(func(stats model.StatsMap) model.StatsMap {
		return stats.AddStudyTime(user, 1, today)
	})
	s.unsaved++

	if s.unsaved >= saveEvery || finished {
		if err := s.flushLocked(ctx); err != nil {
			log.WithError(err).Warn("save study time")
		}
	}
	st := s.state
	s.mu.Unlock()

	if finished && s.alerter != nil {
		if err := s.alerter.Alert(ctx, AppName, "Focus session complete. Take a break!"); err != nil {
			log.WithError(err).Warn("timer alert failed")
		}
	}
	return st
}

// Flush writes any unsaved study time.
func (s *TimerService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// WithPending runs fn with the seconds credited locally but not yet stored.
// No tick or save runs until fn returns.
func (s *TimerService) WithPending(fn func(user model.UserID, seconds int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.pendingUser, s.unsaved)
}

func (s *TimerService) flushLocked(ctx context.Context) error {
	if s.unsaved == 0 {
		return nil
	}
	// Only the credited user's row is written; the partner owns theirs.
	mine, ok := s.view.Stats()[s.pendingUser]
	if !ok {
		s.unsaved = 0
		return nil
	}
	if err := s.stats.UpsertBatch(ctx, model.StatsMap{s.pendingUser: mine}); err != nil {
		return fmt.Errorf("save study time: %w", err)
	}
	s.unsaved = 0
	return nil
}

// Job adapts Tick for the per-second scheduler entry.
func (s *TimerService) Job(ctx context.Context) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		s.Tick(ctx)
	}
}
