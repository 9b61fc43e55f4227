package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"duostudy/internal/model"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore implements every store interface in memory. Setting one of the
// *Err fields makes the matching call fail.
type fakeStore struct {
	mu sync.Mutex

	tasks         map[string]model.Task
	stats         model.StatsMap
	settings      *model.Settings
	history       []model.HistoryEntry
	notifications map[string]model.Notification

	listTasksErr  error
	upsertTaskErr error
	listStatsErr  error
	upsertStatErr error
	insertHistErr error
	saveSetErr    error
	listNotifErr  error
	markReadErr   error

	statsUpserts  []model.StatsMap
	markReadIDs   []string
	listTasksHook func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:         map[string]model.Task{},
		stats:         model.StatsMap{},
		notifications: map[string]model.Notification{},
	}
}

type fakeTasks struct{ *fakeStore }
type fakeStats struct{ *fakeStore }
type fakeSettings struct{ *fakeStore }
type fakeHistory struct{ *fakeStore }
type fakeNotifications struct{ *fakeStore }

func (f fakeTasks) List(ctx context.Context) ([]model.Task, error) {
	if f.listTasksHook != nil {
		f.listTasksHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listTasksErr != nil {
		return nil, f.listTasksErr
	}
	out := make([]model.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f fakeTasks) UpsertBatch(ctx context.Context, tasks []model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertTaskErr != nil {
		return f.upsertTaskErr
	}
	for _, task := range tasks {
		f.tasks[task.ID] = task.Clone()
	}
	return nil
}

func (f fakeTasks) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	return nil
}

func (f fakeStats) List(ctx context.Context) (model.StatsMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listStatsErr != nil {
		return nil, f.listStatsErr
	}
	return f.stats.Clone(), nil
}

func (f fakeStats) UpsertBatch(ctx context.Context, stats model.StatsMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertStatErr != nil {
		return f.upsertStatErr
	}
	f.statsUpserts = append(f.statsUpserts, stats.Clone())
	for user, s := range stats {
		f.stats[user] = s
	}
	return nil
}

func (f fakeSettings) Get(ctx context.Context) (model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		return model.DefaultSettings(), nil
	}
	return *f.settings, nil
}

func (f fakeSettings) Save(ctx context.Context, settings model.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveSetErr != nil {
		return f.saveSetErr
	}
	f.settings = &settings
	return nil
}

func (f fakeHistory) List(ctx context.Context) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.HistoryEntry, 0, len(f.history))
	for i := len(f.history) - 1; i >= 0; i-- {
		out = append(out, f.history[i].Clone())
	}
	return out, nil
}

func (f fakeHistory) Insert(ctx context.Context, entry model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertHistErr != nil {
		return f.insertHistErr
	}
	f.history = append(f.history, entry.Clone())
	return nil
}

func (f fakeNotifications) List(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listNotifErr != nil {
		return nil, f.listNotifErr
	}
	out := make([]model.Notification, 0, len(f.notifications))
	for _, n := range f.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f fakeNotifications) Upsert(ctx context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[n.ID] = n
	return nil
}

func (f fakeNotifications) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadIDs = append(f.markReadIDs, id)
	if f.markReadErr != nil {
		return f.markReadErr
	}
	n := f.notifications[id]
	n.Read = true
	f.notifications[id] = n
	return nil
}

func (f *fakeStore) notificationsFor(user model.UserID) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notifications {
		if n.ForUserID == user {
			out = append(out, n)
		}
	}
	return out
}

type recordingAlerter struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (a *recordingAlerter) Alert(ctx context.Context, title, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bodies = append(a.bodies, body)
	return a.err
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bodies)
}
