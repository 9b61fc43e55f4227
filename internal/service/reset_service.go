package service

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// ResetPhase is the state of the day-boundary transition.
type ResetPhase int

const (
	PhaseLive ResetPhase = iota
	PhaseArchiving
	PhaseReseeding
)

func (p ResetPhase) String() string {
	switch p {
	case PhaseArchiving:
		return "archiving"
	case PhaseReseeding:
		return "reseeding"
	default:
		return "live"
	}
}

// ResetResult describes a completed day rollover.
type ResetResult struct {
	ArchiveDate string
	Archived    bool
	NewDate     string
	Tasks       []model.Task
	Stats       model.StatsMap
}

// ShouldArchive reports whether the day holds anything worth keeping.
func ShouldArchive(tasks []model.Task, stats model.StatsMap) bool {
	return len(tasks) > 0 || stats.TotalStudyTime() > 0
}

// Reseed builds the next day's tasks: for each user, unfinished work becomes
// due, due flags on finished halves stay as they were, and completion is
// cleared.
func Reseed(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		next := task.Clone()
		for _, user := range model.Users() {
			st := next.State(user)
			if !st.Completed {
				st.Due = true
			}
			st.Completed = false
			next.Progress[user] = st
		}
		out = append(out, next)
	}
	return out
}

// ResetService archives the live day into history and seeds the next one.
// Callers must obtain explicit confirmation first; the operation is
// destructive.
type ResetService struct {
	tasks   TaskStore
	stats   StatsStore
	history HistoryStore
	view    *state.View
	clock   Clock
	study   StudyTracker

	mu    sync.Mutex
	phase ResetPhase
}

func NewResetService(tasks TaskStore, stats StatsStore, history HistoryStore, view *state.View, clock Clock) *ResetService {
	return &ResetService{tasks: tasks, stats: stats, history: history, view: view, clock: clock}
}

// TrackStudy makes Reset store t's unsaved study time before archiving.
func (s *ResetService) TrackStudy(t StudyTracker) {
	s.study = t
}

func (s *ResetService) Phase() ResetPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *ResetService) setPhase(p ResetPhase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// Reset runs Live -> Archiving -> Reseeding -> Live. Any failure before the
// reseed commit leaves the store and the view untouched by the reseed.
func (s *ResetService) Reset(ctx context.Context) (ResetResult, error) {
	s.mu.Lock()
	if s.phase != PhaseLive {
		s.mu.Unlock()
		return ResetResult{}, ErrResetInProgress
	}
	s.phase = PhaseArchiving
	s.mu.Unlock()
	defer s.setPhase(PhaseLive)

	settings := s.view.Settings()
	today := s.clock.Today()
	res := ResetResult{ArchiveDate: today, NewDate: today}
	if last := s.view.Stats()[settings.CurrentUserID].LastReset; last != "" {
		res.ArchiveDate = last
	}

	if s.study != nil {
		if err := s.study.Flush(ctx); err != nil {
			return res, fmt.Errorf("reset aborted, %w", err)
		}
	}

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return res, fmt.Errorf("reset aborted, fetch tasks: %w", err)
	}
	stats, err := s.stats.List(ctx)
	if err != nil {
		return res, fmt.Errorf("reset aborted, fetch stats: %w", err)
	}

	if ShouldArchive(tasks, stats) {
		entry := model.HistoryEntry{
			Date:  res.ArchiveDate,
			Tasks: model.CloneTasks(tasks),
			Stats: stats.Clone(),
		}
		if err := s.history.Insert(ctx, entry); err != nil {
			return res, fmt.Errorf("reset aborted, archive: %w", err)
		}
		s.view.PrependHistory(entry)
		res.Archived = true
	} else {
		log.WithField("date", res.ArchiveDate).Info("nothing to archive")
	}

	s.setPhase(PhaseReseeding)
	res.Tasks = Reseed(tasks)
	res.Stats = model.FreshStats(today)

	if err := s.tasks.UpsertBatch(ctx, res.Tasks); err != nil {
		return res, fmt.Errorf("reseed tasks: %w", err)
	}
	if err := s.stats.UpsertBatch(ctx, res.Stats); err != nil {
		return res, fmt.Errorf("reseed stats: %w", err)
	}
	s.view.SetTasks(res.Tasks)
	s.view.SetStats(res.Stats)

	log.WithFields(log.Fields{
		"archived": res.Archived,
		"date":     res.ArchiveDate,
		"tasks":    len(res.Tasks),
		"by":       settings.CurrentUserID,
	}).Info("day reset")
	return res, nil
}
