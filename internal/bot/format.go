package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"duostudy/internal/model"
	"duostudy/internal/service"
)

const (
	iconOpen = "🟢"
	iconDone = "✅"
	iconDue  = "⚠️"
	iconTodo = "⬜"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortText(text string, maxLen int) string {
	clean := normalizeText(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// taskIcon is how the acting user sees a task.
func taskIcon(task model.Task, me model.UserID) string {
	switch {
	case task.Completed(me):
		return iconDone
	case task.Due(me):
		return iconDue
	default:
		return iconOpen
	}
}

func userMarks(task model.Task, user model.UserID) string {
	mark := iconTodo
	if task.Completed(user) {
		mark = iconDone
	}
	if task.Due(user) {
		mark += iconDue
	}
	return mark
}

func formatTask(pos int, task model.Task, settings model.Settings) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d. %s %s\n", pos, taskIcon(task, settings.CurrentUserID), escape(normalizeText(task.Text))))
	parts := make([]string, 0, 2)
	for _, user := range model.Users() {
		parts = append(parts, fmt.Sprintf("%s %s", escape(settings.Name(user)), userMarks(task, user)))
	}
	b.WriteString("   " + strings.Join(parts, " · ") + "\n")
	return b.String()
}

func renderTaskList(tasks []model.Task, settings model.Settings) string {
	if len(tasks) == 0 {
		return "No goals for today yet. Add one with /add."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Today's goals</b>\n")
	b.WriteString("Use the buttons to mark a goal done or due for you.\n\n")
	for i, task := range tasks {
		b.WriteString(formatTask(i+1, task, settings))
	}
	return strings.TrimSpace(b.String())
}

func renderDueList(due []model.Task, settings model.Settings) string {
	if len(due) == 0 {
		return "Nothing is marked as due. 🎉"
	}
	var b strings.Builder
	b.WriteString("⚠️ <b>Due</b>\n\n")
	for _, task := range due {
		var who []string
		for _, user := range model.Users() {
			if task.Due(user) {
				who = append(who, escape(settings.Name(user)))
			}
		}
		b.WriteString(fmt.Sprintf("• %s (%s)\n", escape(normalizeText(task.Text)), strings.Join(who, ", ")))
	}
	return strings.TrimSpace(b.String())
}

// formatClock renders seconds as MM:SS, or H:MM:SS from one hour up.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func renderTimer(st service.TimerState) string {
	status := "paused"
	if st.Active {
		status = "running"
	}
	return fmt.Sprintf("⏱ <b>%s</b>\nMode: %s · %s", formatClock(st.Seconds), st.Mode, status)
}

func renderProgress(users []service.UserProgress, me model.UserID) string {
	var b strings.Builder
	b.WriteString("📊 <b>Progress today</b>\n\n")
	for _, p := range users {
		marker := ""
		if p.UserID == me {
			marker = " (you)"
		}
		b.WriteString(fmt.Sprintf("👤 <b>%s</b>%s\n", escape(p.Name), marker))
		b.WriteString(fmt.Sprintf("   %d/%d goals · %d%% · ⏱ %s\n", p.Completed, p.Total, p.Percentage, service.FormatDuration(p.StudyTime)))
	}
	return strings.TrimSpace(b.String())
}

func renderHistory(days []service.DayProgress) string {
	if len(days) == 0 {
		return "No archived days yet. Finish a day with /reset."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>History</b>\n\n")
	for _, day := range days {
		b.WriteString(fmt.Sprintf("🗓 <b>%s</b> · %d goals\n", day.Date, day.Goals))
		for _, p := range day.Users {
			b.WriteString(fmt.Sprintf("   %s: %d/%d (%d%%) · %s\n", escape(p.Name), p.Completed, p.Total, p.Percentage, service.FormatDuration(p.StudyTime)))
		}
	}
	return strings.TrimSpace(b.String())
}

func renderInbox(notifications []model.Notification) string {
	if len(notifications) == 0 {
		return "📭 No notifications."
	}
	var b strings.Builder
	b.WriteString("📬 <b>Notifications</b>\n\n")
	for _, n := range notifications {
		mark := "•"
		if !n.Read {
			mark = "🆕"
		}
		b.WriteString(fmt.Sprintf("%s %s <i>%s</i>\n", mark, escape(n.Message), n.Timestamp.Format("Jan 2 15:04")))
	}
	return strings.TrimSpace(b.String())
}

func renderProfile(settings model.Settings, unread int) string {
	me := settings.CurrentUserID
	inbox := "no unread notifications"
	if unread > 0 {
		inbox = fmt.Sprintf("🆕 %d unread, see /inbox", unread)
	}
	return fmt.Sprintf("👤 <b>Profile</b>\nYou are <b>%s</b> (%s).\nPartner: %s\nTheme: %s\nInbox: %s\n\n/name &lt;name&gt; · /switch · /theme",
		escape(settings.Name(me)), me, escape(settings.Name(me.Partner())), settings.Theme, inbox)
}

func renderReset(res service.ResetResult) string {
	if !res.Archived {
		return fmt.Sprintf("🌅 New day started (%s). There was nothing to archive.", res.NewDate)
	}
	due := 0
	for _, task := range res.Tasks {
		if task.AnyDue() {
			due++
		}
	}
	return fmt.Sprintf("🌅 Day %s archived. New day %s started with %d goals, %d carried over as due.",
		res.ArchiveDate, res.NewDate, len(res.Tasks), due)
}

type timerAction int

const (
	timerShow timerAction = iota
	timerStart
	timerStop
	timerReset
	timerCountdown
	timerStopwatch
)

// parseTimerArgs reads "/timer" arguments: start, stop, reset, stopwatch,
// countdown N, or a bare number of minutes.
func parseTimerArgs(args string) (timerAction, int, error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 {
		return timerShow, 0, nil
	}
	switch fields[0] {
	case "start":
		return timerStart, 0, nil
	case "stop", "pause":
		return timerStop, 0, nil
	case "reset":
		return timerReset, 0, nil
	case "stopwatch":
		return timerStopwatch, 0, nil
	case "countdown":
		if len(fields) < 2 {
			return timerShow, 0, fmt.Errorf("countdown needs minutes")
		}
		minutes, err := strconv.Atoi(fields[1])
		if err != nil {
			return timerShow, 0, fmt.Errorf("minutes must be a number")
		}
		return timerCountdown, minutes, nil
	}
	if minutes, err := strconv.Atoi(fields[0]); err == nil {
		return timerCountdown, minutes, nil
	}
	return timerShow, 0, fmt.Errorf("unknown timer action %q", fields[0])
}

// parseUser accepts a role id or a short alias. Empty input means the
// partner of current.
func parseUser(arg string, current model.UserID) (model.UserID, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		return current.Partner(), true
	case "a", "1", string(model.UserA):
		return model.UserA, true
	case "b", "2", string(model.UserB):
		return model.UserB, true
	default:
		return "", false
	}
}
