// Package state holds the in-process view of the live day. Every accessor
// returns a copy and every update replaces a whole value, so concurrent
// jobs (sync poll, timer tick, chat handlers) resolve by last write wins.
package state

import (
	"reflect"
	"sync"

	"duostudy/internal/model"
)

// View is the local aggregate a client renders from.
type View struct {
	mu            sync.RWMutex
	tasks         []model.Task
	stats         model.StatsMap
	settings      model.Settings
	history       []model.HistoryEntry
	notifications []model.Notification
}

func NewView() *View {
	return &View{
		tasks:    []model.Task{},
		stats:    model.StatsMap{},
		settings: model.DefaultSettings(),
	}
}

// Snapshot is a consistent copy of the whole view.
type Snapshot struct {
	Tasks         []model.Task
	Stats         model.StatsMap
	Settings      model.Settings
	History       []model.HistoryEntry
	Notifications []model.Notification
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Tasks:         model.CloneTasks(v.tasks),
		Stats:         v.stats.Clone(),
		Settings:      v.settings,
		History:       cloneHistory(v.history),
		Notifications: cloneNotifications(v.notifications),
	}
}

// Load installs a full snapshot, used after the initial fetch.
func (v *View) Load(s Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tasks = model.CloneTasks(s.Tasks)
	if v.tasks == nil {
		v.tasks = []model.Task{}
	}
	v.stats = s.Stats.Clone()
	v.settings = s.Settings
	v.history = cloneHistory(s.History)
	v.notifications = cloneNotifications(s.Notifications)
}

func (v *View) Tasks() []model.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return model.CloneTasks(v.tasks)
}

func (v *View) SetTasks(tasks []model.Task) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tasks = model.CloneTasks(tasks)
}

// ReplaceTasksIfChanged swaps in tasks only when they differ from the
// current list and reports whether it did.
func (v *View) ReplaceTasksIfChanged(tasks []model.Task) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if equalTasks(v.tasks, tasks) {
		return false
	}
	v.tasks = model.CloneTasks(tasks)
	return true
}

func (v *View) Stats() model.StatsMap {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats.Clone()
}

func (v *View) SetStats(stats model.StatsMap) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = stats.Clone()
}

// UpdateStats applies fn to the current stats under the write lock.
func (v *View) UpdateStats(fn func(model.StatsMap) model.StatsMap) model.StatsMap {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = fn(v.stats.Clone())
	return v.stats.Clone()
}

func (v *View) ReplaceStatsIfChanged(stats model.StatsMap) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if reflect.DeepEqual(v.stats, stats) {
		return false
	}
	v.stats = stats.Clone()
	return true
}

func (v *View) Settings() model.Settings {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.settings
}

func (v *View) SetSettings(settings model.Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = settings
}

func (v *View) History() []model.HistoryEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneHistory(v.history)
}

// PrependHistory records a freshly archived day, keeping the newest
// model.HistoryLimit entries.
func (v *View) PrependHistory(entry model.HistoryEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = model.PrependHistory(v.history, entry.Clone())
}

func (v *View) Notifications() []model.Notification {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneNotifications(v.notifications)
}

func (v *View) ReplaceNotificationsIfChanged(notifications []model.Notification) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if equalNotifications(v.notifications, notifications) {
		return false
	}
	v.notifications = cloneNotifications(notifications)
	return true
}

// MarkNotificationsRead flags the given ids as read.
func (v *View) MarkNotificationsRead(ids []string) {
	if len(ids) == 0 {
		return
	}
	read := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		read[id] = struct{}{}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	next := cloneNotifications(v.notifications)
	for i := range next {
		if _, ok := read[next[i].ID]; ok {
			next[i].Read = true
		}
	}
	v.notifications = next
}

func equalTasks(a, b []model.Task) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || reflect.DeepEqual(a, b)
}

func equalNotifications(a, b []model.Notification) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || reflect.DeepEqual(a, b)
}

func cloneHistory(history []model.HistoryEntry) []model.HistoryEntry {
	if history == nil {
		return nil
	}
	out := make([]model.HistoryEntry, len(history))
	for i, entry := range history {
		out[i] = entry.Clone()
	}
	return out
}

func cloneNotifications(notifications []model.Notification) []model.Notification {
	if notifications == nil {
		return nil
	}
	out := make([]model.Notification, len(notifications))
	copy(out, notifications)
	return out
}
