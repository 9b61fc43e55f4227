package service

import (
	"fmt"
	"testing"
	"time"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

type harness struct {
	store   *fakeStore
	view    *state.View
	clock   Clock
	alerter *recordingAlerter
	relay   *NotificationService
	tasks   *TaskService
	reset   *ResetService
	sync    *SyncService
}

func fixedClock(day string) Clock {
	at, err := time.Parse(dateLayout, day)
	if err != nil {
		panic(err)
	}
	at = at.Add(9 * time.Hour)
	return Clock{Location: time.UTC, Now: func() time.Time { return at }}
}

func newHarness(t *testing.T, user model.UserID) *harness {
	t.Helper()
	h := &harness{
		store:   newFakeStore(),
		view:    state.NewView(),
		clock:   fixedClock("2026-10-14"),
		alerter: &recordingAlerter{},
	}
	settings := model.DefaultSettings()
	settings.NameA, settings.NameB = "Ana", "Bo"
	settings.CurrentUserID = user
	h.view.SetSettings(settings)
	h.view.SetStats(model.FreshStats("2026-10-14"))

	h.relay = NewNotificationService(fakeNotifications{h.store}, h.view, h.alerter, h.clock)
	seq := 0
	h.relay.newID = func() string { seq++; return fmt.Sprintf("n%d", seq) }

	h.tasks = NewTaskService(fakeTasks{h.store}, h.view, h.relay, h.clock)
	taskSeq := 0
	h.tasks.newID = func() string { taskSeq++; return fmt.Sprintf("t%d", taskSeq) }

	h.reset = NewResetService(fakeTasks{h.store}, fakeStats{h.store}, fakeHistory{h.store}, h.view, h.clock)
	h.sync = NewSyncService(fakeTasks{h.store}, fakeStats{h.store}, fakeSettings{h.store}, fakeHistory{h.store}, fakeNotifications{h.store}, h.view, h.relay, h.clock)
	return h
}
