package service

import (
	"fmt"
	"html"
	"math"
	"strings"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// UserProgress summarises one user's day.
type UserProgress struct {
	UserID     model.UserID
	Name       string
	Completed  int
	Total      int
	Percentage int
	StudyTime  int64
}

// DayProgress is the progress of both users for an archived day.
type DayProgress struct {
	Date  string
	Goals int
	Users []UserProgress
}

// ComputeProgress counts user's completed tasks and study time.
func ComputeProgress(user model.UserID, tasks []model.Task, stats model.StatsMap) UserProgress {
	p := UserProgress{UserID: user, Total: len(tasks), StudyTime: stats[user].TotalStudyTime}
	for _, task := range tasks {
		if task.Completed(user) {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}

// FormatDuration renders seconds as "2h 5m" or "5m".
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// ProgressService builds progress views and human-readable summaries.
type ProgressService struct {
	view *state.View
}

func NewProgressService(view *state.View) *ProgressService {
	return &ProgressService{view: view}
}

// Live returns the current day's progress for both users.
func (s *ProgressService) Live() []UserProgress {
	snap := s.view.Snapshot()
	return progressFor(snap.Settings, snap.Tasks, snap.Stats)
}

// History returns progress for every archived day, newest first.
func (s *ProgressService) History() []DayProgress {
	snap := s.view.Snapshot()
	days := make([]DayProgress, 0, len(snap.History))
	for _, entry := range snap.History {
		days = append(days, DayProgress{
			Date:  entry.Date,
			Goals: len(entry.Tasks),
			Users: progressFor(snap.Settings, entry.Tasks, entry.Stats),
		})
	}
	return days
}

func progressFor(settings model.Settings, tasks []model.Task, stats model.StatsMap) []UserProgress {
	out := make([]UserProgress, 0, 2)
	for _, user := range model.Users() {
		p := ComputeProgress(user, tasks, stats)
		p.Name = settings.Name(user)
		out = append(out, p)
	}
	return out
}

// DailySummary renders the live day as an HTML chat message.
func (s *ProgressService) DailySummary(today string) string {
	snap := s.view.Snapshot()
	me := snap.Settings.CurrentUserID

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today))

	for _, p := range progressFor(snap.Settings, snap.Tasks, snap.Stats) {
		marker := ""
		if p.UserID == me {
			marker = " (you)"
		}
		builder.WriteString(fmt.Sprintf("👤 <b>%s</b>%s: %d/%d goals · %d%% · ⏱ %s\n",
			html.EscapeString(p.Name), marker, p.Completed, p.Total, p.Percentage, FormatDuration(p.StudyTime)))
	}

	var open []model.Task
	for _, task := range snap.Tasks {
		if !task.Completed(me) {
			open = append(open, task)
		}
	}
	builder.WriteString("\n🔥 <b>Still open for you</b>\n")
	if len(open) == 0 {
		builder.WriteString("— nothing left, great job\n")
	} else {
		for _, task := range open {
			icon := "🟢"
			if task.Due(me) {
				icon = "⚠️"
			}
			builder.WriteString(fmt.Sprintf("%s %s\n", icon, html.EscapeString(strings.TrimSpace(task.Text))))
		}
	}

	return strings.TrimSpace(builder.String())
}
