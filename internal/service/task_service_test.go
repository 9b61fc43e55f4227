package service

import (
	"context"
	"errors"
	"testing"

	"duostudy/internal/model"
)

func TestAddTaskRejectsEmptyText(t *testing.T) {
	h := newHarness(t, model.UserA)
	if _, err := h.tasks.AddTask(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if len(h.view.Tasks()) != 0 {
		t.Fatal("empty task reached the view")
	}
}

func TestAddTaskPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	first, _ := h.tasks.AddTask(ctx, "first")
	second, _ := h.tasks.AddTask(ctx, " second ")

	tasks := h.tasks.List()
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", tasks)
	}
	if tasks[0].Text != "second" {
		t.Fatalf("text not trimmed: %q", tasks[0].Text)
	}
	if len(h.store.tasks) != 2 {
		t.Fatalf("expected 2 stored tasks, got %d", len(h.store.tasks))
	}
}

func TestToggleUsesActingIdentityOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserB)
	task, _ := h.tasks.AddTask(ctx, "essay")

	got, err := h.tasks.ToggleComplete(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !got.Completed(model.UserB) || got.Completed(model.UserA) || got.Due(model.UserA) || got.Due(model.UserB) {
		t.Fatalf("unexpected flags: %+v", got.Progress)
	}

	got, err = h.tasks.ToggleDue(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle due: %v", err)
	}
	if !got.Due(model.UserB) || got.Due(model.UserA) || !got.Completed(model.UserB) {
		t.Fatalf("unexpected flags after due: %+v", got.Progress)
	}
	if stored := h.store.tasks[task.ID]; !stored.Due(model.UserB) {
		t.Fatal("toggle not persisted")
	}
}

func TestToggleUnknownTask(t *testing.T) {
	h := newHarness(t, model.UserA)
	if _, err := h.tasks.ToggleDue(context.Background(), "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestFindByIDOrPosition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	older, _ := h.tasks.AddTask(ctx, "older")
	newer, _ := h.tasks.AddTask(ctx, "newer")

	if got, err := h.tasks.Find("1"); err != nil || got.ID != newer.ID {
		t.Fatalf("position 1: %+v %v", got, err)
	}
	if got, err := h.tasks.Find(older.ID); err != nil || got.ID != older.ID {
		t.Fatalf("by id: %+v %v", got, err)
	}
	if _, err := h.tasks.Find("3"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTaskAndDueList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	keep, _ := h.tasks.AddTask(ctx, "keep")
	drop, _ := h.tasks.AddTask(ctx, "drop")
	if _, err := h.tasks.ToggleDue(ctx, keep.ID); err != nil {
		t.Fatalf("due: %v", err)
	}

	if err := h.tasks.DeleteTask(ctx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := h.store.tasks[drop.ID]; ok {
		t.Fatal("task still stored")
	}
	due := h.tasks.Due()
	if len(due) != 1 || due[0].ID != keep.ID {
		t.Fatalf("unexpected due list: %+v", due)
	}
	if err := h.tasks.DeleteTask(ctx, drop.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestFailedWriteKeepsPreviousTasks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	task, err := h.tasks.AddTask(ctx, "essay")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	h.store.upsertTaskErr = errStoreDown

	if _, err := h.tasks.AddTask(ctx, "lost"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(h.view.Tasks()) != 1 {
		t.Fatalf("failed add reached the view: %+v", h.view.Tasks())
	}

	got, err := h.tasks.ToggleComplete(ctx, task.ID)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got.Completed(model.UserA) || h.view.Tasks()[0].Completed(model.UserA) {
		t.Fatal("failed toggle reached the view")
	}
	if len(h.store.notifications) != 0 {
		t.Fatal("partner notified about an unsaved change")
	}
}
