package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// TaskService mutates the shared task list on behalf of the acting identity.
type TaskService struct {
	store TaskStore
	view  *state.View
	relay *NotificationService
	clock Clock
	newID func() string
}

func NewTaskService(store TaskStore, view *state.View, relay *NotificationService, clock Clock) *TaskService {
	return &TaskService{store: store, view: view, relay: relay, clock: clock, newID: uuid.NewString}
}

// List returns the live tasks, newest first.
func (s *TaskService) List() []model.Task {
	return s.view.Tasks()
}

// Due returns tasks either user flagged as due.
func (s *TaskService) Due() []model.Task {
	var due []model.Task
	for _, task := range s.view.Tasks() {
		if task.AnyDue() {
			due = append(due, task)
		}
	}
	return due
}

// Find resolves ref as a task id or as a 1-based position in List.
func (s *TaskService) Find(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	tasks := s.view.Tasks()
	for _, task := range tasks {
		if task.ID == ref {
			return task, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
		return tasks[n-1], nil
	}
	return model.Task{}, ErrTaskNotFound
}

// AddTask prepends a new open task and saves the list. The view only
// changes once the store accepted the write.
func (s *TaskService) AddTask(ctx context.Context, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}

	task := model.NewTask(s.newID(), text, s.clock.now())
	updated := append([]model.Task{task}, s.view.Tasks()...)
	if err := s.store.UpsertBatch(ctx, updated); err != nil {
		return task, fmt.Errorf("add task: %w", err)
	}
	s.view.SetTasks(updated)
	log.WithField("task", task.ID).Info("task added")
	return task, nil
}

// ToggleComplete flips the acting identity's completion flag.
func (s *TaskService) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	return s.toggle(ctx, id, model.Task.ToggleCompleted)
}

// ToggleDue flips the acting identity's due flag.
func (s *TaskService) ToggleDue(ctx context.Context, id string) (model.Task, error) {
	return s.toggle(ctx, id, model.Task.ToggleDue)
}

func (s *TaskService) toggle(ctx context.Context, id string, flip func(model.Task, model.UserID) model.Task) (model.Task, error) {
	settings := s.view.Settings()
	tasks := s.view.Tasks()

	idx := -1
	for i, task := range tasks {
		if task.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Task{}, ErrTaskNotFound
	}

	before := tasks[idx]
	after := flip(before, settings.CurrentUserID)
	tasks[idx] = after
	if err := s.store.UpsertBatch(ctx, tasks); err != nil {
		return before, fmt.Errorf("save %s: %w", id, err)
	}
	s.view.SetTasks(tasks)

	if s.relay != nil {
		if _, err := s.relay.TaskChanged(ctx, settings, before, after); err != nil {
			log.WithError(err).WithField("task", id).Warn("notify partner")
		}
	}
	return after, nil
}

// DeleteTask removes a task locally and from the store.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	tasks := s.view.Tasks()
	kept := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	if len(kept) == len(tasks) {
		return ErrTaskNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.view.SetTasks(kept)
	log.WithField("task", id).Info("task deleted")
	return nil
}
