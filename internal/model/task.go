package model

import "time"

// TaskState is one user's view of a shared task.
type TaskState struct {
	Completed bool
	Due       bool
}

// Task represents a goal shared by both users. Completion and urgency are
// tracked per identity and never linked to each other.
type Task struct {
	ID        string
	Text      string
	Progress  map[UserID]TaskState
	CreatedAt time.Time
}

// NewTask builds an open task with both halves cleared.
func NewTask(id, text string, createdAt time.Time) Task {
	return Task{
		ID:        id,
		Text:      text,
		Progress:  map[UserID]TaskState{UserA: {}, UserB: {}},
		CreatedAt: Millis(createdAt),
	}
}

func (t Task) State(user UserID) TaskState {
	return t.Progress[user]
}

func (t Task) Completed(user UserID) bool {
	return t.Progress[user].Completed
}

func (t Task) Due(user UserID) bool {
	return t.Progress[user].Due
}

// WithState returns a copy of t where only user's half is replaced.
func (t Task) WithState(user UserID, state TaskState) Task {
	out := t.Clone()
	out.Progress[user] = state
	return out
}

// ToggleCompleted flips the completion flag of user only.
func (t Task) ToggleCompleted(user UserID) Task {
	state := t.State(user)
	state.Completed = !state.Completed
	return t.WithState(user, state)
}

// ToggleDue flips the due flag of user only.
func (t Task) ToggleDue(user UserID) Task {
	state := t.State(user)
	state.Due = !state.Due
	return t.WithState(user, state)
}

// AnyDue reports whether either user flagged the task as due.
func (t Task) AnyDue() bool {
	for _, state := range t.Progress {
		if state.Due {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no state with t.
func (t Task) Clone() Task {
	out := t
	out.Progress = make(map[UserID]TaskState, len(t.Progress))
	for user, state := range t.Progress {
		out.Progress[user] = state
	}
	for _, user := range Users() {
		if _, ok := out.Progress[user]; !ok {
			out.Progress[user] = TaskState{}
		}
	}
	return out
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}

// Millis truncates t to millisecond precision in UTC, the resolution the
// store keeps, so that values compare equal after a round trip.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}
