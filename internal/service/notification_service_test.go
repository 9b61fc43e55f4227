package service

import (
	"context"
	"testing"
	"time"

	"duostudy/internal/model"
)

func TestDeriveNotification(t *testing.T) {
	open := model.NewTask("t1", "Chapter 3", time.UnixMilli(1))
	done := open.ToggleCompleted(model.UserA)
	due := open.ToggleDue(model.UserA)
	partnerDone := open.ToggleCompleted(model.UserB)

	cases := []struct {
		name   string
		before model.Task
		after  model.Task
		want   string
		ok     bool
	}{
		{"completed", open, done, "Ana completed a goal: Chapter 3", true},
		{"uncompleted", done, open, "", false},
		{"marked due", open, due, "Ana marked a task as DUE: Chapter 3", true},
		{"unmarked due", due, open, "", false},
		{"partner half only", open, partnerDone, "", false},
		{"no change", open, open, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DeriveNotification("Ana", model.UserA, tc.before, tc.after)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestCompletionNotifiesPartnerOncePerTransition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	task, err := h.tasks.AddTask(ctx, "Chapter 3")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := h.tasks.ToggleComplete(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := len(h.store.notificationsFor(model.UserB)); got != 1 {
		t.Fatalf("expected 1 notification after completing, got %d", got)
	}

	if _, err := h.tasks.ToggleComplete(ctx, task.ID); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if got := len(h.store.notificationsFor(model.UserB)); got != 1 {
		t.Fatalf("uncompleting must not notify, have %d", got)
	}

	if _, err := h.tasks.ToggleComplete(ctx, task.ID); err != nil {
		t.Fatalf("recomplete: %v", err)
	}
	notes := h.store.notificationsFor(model.UserB)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications after recompleting, got %d", len(notes))
	}
	for _, n := range notes {
		if n.Message != "Ana completed a goal: Chapter 3" || n.Read {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
	if len(h.store.notificationsFor(model.UserA)) != 0 {
		t.Fatal("actor must not be notified")
	}
}

func TestReceiveAlertsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserB)
	now := time.UnixMilli(50).UTC()
	h.store.notifications["n1"] = model.Notification{ID: "n1", ForUserID: model.UserB, Message: "Ana completed a goal: x", Timestamp: now}
	h.store.notifications["n2"] = model.Notification{ID: "n2", ForUserID: model.UserA, Message: "for someone else", Timestamp: now}
	h.store.notifications["n3"] = model.Notification{ID: "n3", ForUserID: model.UserB, Message: "old", Timestamp: now, Read: true}

	for i := 0; i < 3; i++ {
		if _, err := h.sync.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	if h.alerter.count() != 1 || h.alerter.bodies[0] != "Ana completed a goal: x" {
		t.Fatalf("unexpected alerts: %v", h.alerter.bodies)
	}
	if !h.store.notifications["n1"].Read {
		t.Fatal("notification not marked read remotely")
	}
	if h.store.notifications["n2"].Read {
		t.Fatal("partner's notification marked read")
	}
	for _, n := range h.view.Notifications() {
		if n.ID == "n1" && !n.Read {
			t.Fatal("notification not marked read locally")
		}
	}
}

func TestReceiveDoesNotRealertWhenRemoteMarkFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserB)
	h.store.markReadErr = errStoreDown
	h.store.notifications["n1"] = model.Notification{ID: "n1", ForUserID: model.UserB, Message: "hi", Timestamp: time.UnixMilli(1).UTC()}

	for i := 0; i < 2; i++ {
		_, _ = h.sync.Tick(ctx)
	}
	if h.alerter.count() != 1 {
		t.Fatalf("expected a single alert, got %d", h.alerter.count())
	}
}

func TestReceiveWithoutAlertPermissionStillMarksRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, model.UserA)
	relay := NewNotificationService(fakeNotifications{h.store}, h.view, nil, h.clock)
	h.view.ReplaceNotificationsIfChanged([]model.Notification{{ID: "n1", ForUserID: model.UserA, Message: "m"}})
	h.store.notifications["n1"] = model.Notification{ID: "n1", ForUserID: model.UserA, Message: "m"}

	if got := relay.Receive(ctx); got != 1 {
		t.Fatalf("expected 1 delivered, got %d", got)
	}
	if len(relay.Unread()) != 0 {
		t.Fatal("notification still unread locally")
	}
}

func TestInboxFiltersAndLimits(t *testing.T) {
	h := newHarness(t, model.UserA)
	h.view.ReplaceNotificationsIfChanged([]model.Notification{
		{ID: "n3", ForUserID: model.UserA, Message: "newest"},
		{ID: "n2", ForUserID: model.UserB, Message: "partner"},
		{ID: "n1", ForUserID: model.UserA, Message: "older", Read: true},
		{ID: "n0", ForUserID: model.UserA, Message: "oldest"},
	})

	got := h.relay.Inbox(2)
	if len(got) != 2 || got[0].ID != "n3" || got[1].ID != "n1" {
		t.Fatalf("unexpected inbox: %+v", got)
	}
	if all := h.relay.Inbox(0); len(all) != 3 {
		t.Fatalf("expected 3 without limit, got %d", len(all))
	}
}
