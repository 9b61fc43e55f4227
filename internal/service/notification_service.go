package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// AppName titles every local alert.
const AppName = "DuoStudy"

// DeriveNotification compares the actor's half of a task before and after a
// mutation. Only a transition to completed or to due produces a message.
func DeriveNotification(actorName string, actor model.UserID, before, after model.Task) (string, bool) {
	was, now := before.State(actor), after.State(actor)
	switch {
	case !was.Completed && now.Completed:
		return fmt.Sprintf("%s completed a goal: %s", actorName, after.Text), true
	case !was.Due && now.Due:
		return fmt.Sprintf("%s marked a task as DUE: %s", actorName, after.Text), true
	default:
		return "", false
	}
}

// NotificationService relays task events to the partner and delivers
// incoming ones as local alerts.
type NotificationService struct {
	store   NotificationStore
	view    *state.View
	alerter Alerter
	clock   Clock
	newID   func() string

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewNotificationService builds the relay. A nil alerter means the user did
// not allow local alerts; notifications are still marked read.
func NewNotificationService(store NotificationStore, view *state.View, alerter Alerter, clock Clock) *NotificationService {
	return &NotificationService{
		store:   store,
		view:    view,
		alerter: alerter,
		clock:   clock,
		newID:   uuid.NewString,
		seen:    make(map[string]struct{}),
	}
}

// TaskChanged sends a notification to the partner of actor when the change
// from before to after qualifies. It returns the created notification, or
// nil when nothing was sent.
func (s *NotificationService) TaskChanged(ctx context.Context, settings model.Settings, before, after model.Task) (*model.Notification, error) {
	actor := settings.CurrentUserID
	message, ok := DeriveNotification(settings.Name(actor), actor, before, after)
	if !ok {
		return nil, nil
	}

	n := model.Notification{
		ID:        s.newID(),
		ForUserID: actor.Partner(),
		Message:   message,
		Timestamp: model.Millis(s.clock.now()),
	}
	if err := s.store.Upsert(ctx, n); err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}
	log.WithFields(log.Fields{"for": n.ForUserID, "task": after.ID}).Info("partner notified")
	return &n, nil
}

// Receive alerts every unread notification addressed to the current
// identity exactly once, then marks them read remotely and locally.
func (s *NotificationService) Receive(ctx context.Context) int {
	me := s.view.Settings().CurrentUserID

	var pending []model.Notification
	s.mu.Lock()
	for _, n := range s.view.Notifications() {
		if n.ForUserID != me || n.Read {
			continue
		}
		if _, done := s.seen[n.ID]; done {
			continue
		}
		s.seen[n.ID] = struct{}{}
		pending = append(pending, n)
	}
	s.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	ids := make([]string, 0, len(pending))
	for _, n := range pending {
		if s.alerter != nil {
			if err := s.alerter.Alert(ctx, AppName, n.Message); err != nil {
				log.WithError(err).WithField("notification", n.ID).Warn("local alert failed")
			}
		}
		if err := s.store.MarkRead(ctx, n.ID); err != nil {
			log.WithError(err).WithField("notification", n.ID).Warn("mark notification read failed")
		}
		ids = append(ids, n.ID)
	}
	s.view.MarkNotificationsRead(ids)
	return len(ids)
}

// Unread returns the unread notifications for the current identity.
func (s *NotificationService) Unread() []model.Notification {
	me := s.view.Settings().CurrentUserID
	var out []model.Notification
	for _, n := range s.view.Notifications() {
		if n.ForUserID == me && !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// Inbox returns up to limit notifications for the current identity, newest
// first, read or not.
func (s *NotificationService) Inbox(limit int) []model.Notification {
	me := s.view.Settings().CurrentUserID
	var out []model.Notification
	for _, n := range s.view.Notifications() {
		if n.ForUserID != me {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// LogAlerter writes alerts to the log when no chat is configured.
type LogAlerter struct{}

func (LogAlerter) Alert(_ context.Context, title, body string) error {
	log.WithField("title", title).Info(body)
	return nil
}
