package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"duostudy/internal/model"
)

func TestResetSkipsArchiveWhenDayIsEmpty(t *testing.T) {
	h := newHarness(t, model.UserA)
	h.store.stats = model.FreshStats("2026-10-13")

	res, err := h.reset.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if res.Archived || len(h.store.history) != 0 || len(h.view.History()) != 0 {
		t.Fatal("empty day must not be archived")
	}
	if got := h.store.stats[model.UserA].LastReset; got != "2026-10-14" {
		t.Fatalf("day did not roll over, last reset %q", got)
	}
	if h.reset.Phase() != PhaseLive {
		t.Fatalf("phase %s after reset", h.reset.Phase())
	}
}

func TestResetArchivesStudyTimeWithoutTasks(t *testing.T) {
	h := newHarness(t, model.UserA)
	h.store.stats = model.FreshStats("2026-10-13").AddStudyTime(model.UserB, 1, "2026-10-13")

	res, err := h.reset.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !res.Archived || len(h.store.history) != 1 {
		t.Fatal("expected exactly one history entry")
	}
}

func TestResetArchivesDeepCopy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	task := model.NewTask("t1", "read", time.UnixMilli(1)).ToggleCompleted(model.UserA)
	h.store.tasks[task.ID] = task

	if _, err := h.reset.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	history := h.view.History()
	if len(history) != 1 {
		t.Fatalf("expected one entry, got %d", len(history))
	}
	live := h.view.Tasks()
	live[0].Progress[model.UserA] = model.TaskState{Completed: true, Due: true}
	h.view.SetTasks(live)

	archived := h.view.History()[0].Tasks[0]
	if !reflect.DeepEqual(archived, task) {
		t.Fatalf("archived task changed: %+v", archived)
	}
	if !reflect.DeepEqual(h.store.history[0].Tasks[0], task) {
		t.Fatalf("stored archive changed: %+v", h.store.history[0].Tasks[0])
	}
}

func TestReseedFlags(t *testing.T) {
	base := model.NewTask("t", "x", time.UnixMilli(1))
	combos := []model.TaskState{{}, {Completed: true}, {Due: true}, {Completed: true, Due: true}}

	for _, a := range combos {
		for _, b := range combos {
			before := base.WithState(model.UserA, a).WithState(model.UserB, b)
			after := Reseed([]model.Task{before})[0]

			for user, prev := range map[model.UserID]model.TaskState{model.UserA: a, model.UserB: b} {
				got := after.State(user)
				if got.Completed {
					t.Fatalf("%s still completed after reseed", user)
				}
				wantDue := prev.Due
				if !prev.Completed {
					wantDue = true
				}
				if got.Due != wantDue {
					t.Fatalf("%s from %+v: due=%v want %v", user, prev, got.Due, wantDue)
				}
			}
			if before.Completed(model.UserA) != a.Completed {
				t.Fatal("reseed mutated its input")
			}
		}
	}
}

func TestResetAbortsWhenFetchFails(t *testing.T) {
	for _, name := range []string{"tasks", "stats"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, model.UserA)
			task := model.NewTask("t1", "read", time.UnixMilli(1))
			h.store.tasks[task.ID] = task
			h.view.SetTasks([]model.Task{task})
			before := h.view.Snapshot()
			if name == "tasks" {
				h.store.listTasksErr = errStoreDown
			} else {
				h.store.listStatsErr = errStoreDown
			}

			if _, err := h.reset.Reset(ctx); !errors.Is(err, errStoreDown) {
				t.Fatalf("expected store error, got %v", err)
			}
			if len(h.store.history) != 0 || len(h.store.statsUpserts) != 0 {
				t.Fatal("store mutated after failed fetch")
			}
			if !reflect.DeepEqual(h.view.Snapshot(), before) {
				t.Fatal("view mutated after failed fetch")
			}
			if h.store.tasks["t1"].Due(model.UserA) {
				t.Fatal("tasks reseeded after failed fetch")
			}
			if h.reset.Phase() != PhaseLive {
				t.Fatal("phase not restored")
			}
		})
	}
}

func TestResetAbortsWhenArchiveWriteFails(t *testing.T) {
	h := newHarness(t, model.UserA)
	h.store.tasks["t1"] = model.NewTask("t1", "read", time.UnixMilli(1))
	h.store.insertHistErr = errStoreDown

	if _, err := h.reset.Reset(context.Background()); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected archive error, got %v", err)
	}
	if h.store.tasks["t1"].Due(model.UserA) {
		t.Fatal("reseeded over unarchived data")
	}
	if len(h.view.History()) != 0 {
		t.Fatal("local history updated despite failed archive")
	}
}

func TestResetHistoryCapped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	h.store.tasks["t1"] = model.NewTask("t1", "daily", time.UnixMilli(1))

	day := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	h.reset.clock = Clock{Location: time.UTC, Now: func() time.Time { return day }}
	for i := 0; i < model.HistoryLimit+5; i++ {
		if _, err := h.reset.Reset(ctx); err != nil {
			t.Fatalf("reset %d: %v", i, err)
		}
		day = day.AddDate(0, 0, 1)
	}

	history := h.view.History()
	if len(history) != model.HistoryLimit {
		t.Fatalf("expected %d entries, got %d", model.HistoryLimit, len(history))
	}
	if history[0].Date != "2026-02-03" || history[1].Date != "2026-02-02" {
		t.Fatalf("history not newest first: %s, %s", history[0].Date, history[1].Date)
	}
}

func TestResetRejectsConcurrentTransition(t *testing.T) {
	h := newHarness(t, model.UserA)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.store.listTasksHook = func() {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.reset.Reset(context.Background())
		done <- err
	}()

	<-entered
	if h.reset.Phase() != PhaseArchiving {
		t.Fatalf("expected archiving, got %s", h.reset.Phase())
	}
	if _, err := h.reset.Reset(context.Background()); !errors.Is(err, ErrResetInProgress) {
		t.Fatalf("expected ErrResetInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first reset: %v", err)
	}
}

func TestCompleteThenResetScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	if _, err := h.tasks.AddTask(ctx, "task 2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	task1, _ := h.tasks.AddTask(ctx, "task 1")

	if _, err := h.tasks.ToggleComplete(ctx, task1.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	partner := h.store.notificationsFor(model.UserB)
	if len(partner) != 1 || partner[0].Message != "Ana completed a goal: task 1" {
		t.Fatalf("partner not notified: %+v", partner)
	}

	if _, err := h.reset.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	archived := h.view.History()[0].Tasks
	if len(archived) != 2 {
		t.Fatalf("expected 2 archived tasks, got %d", len(archived))
	}
	byText := map[string]model.Task{}
	for _, task := range archived {
		byText[task.Text] = task
	}
	if !byText["task 1"].Completed(model.UserA) || byText["task 2"].Completed(model.UserA) {
		t.Fatalf("archive lost completion state: %+v", archived)
	}

	live := map[string]model.Task{}
	for _, task := range h.view.Tasks() {
		live[task.Text] = task
	}
	if got := live["task 1"].State(model.UserA); got != (model.TaskState{}) {
		t.Fatalf("task 1 for A: %+v", got)
	}
	if got := live["task 2"].State(model.UserA); got != (model.TaskState{Due: true}) {
		t.Fatalf("task 2 for A: %+v", got)
	}
}
