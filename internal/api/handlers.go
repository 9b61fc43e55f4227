// Package api serves a read-only JSON snapshot of the live view.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/service"
	"duostudy/internal/state"
)

// Source yields the current view.
type Source interface {
	Snapshot() state.Snapshot
}

// Progress yields computed progress.
type Progress interface {
	Live() []service.UserProgress
	History() []service.DayProgress
}

// NewServer returns an Echo instance with the routes registered.
func NewServer(view Source, progress Progress) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	Register(e, view, progress)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, view Source, progress Progress) {
	e.GET("/healthz", healthz())
	e.GET("/api/tasks", getTasks(view, false))
	e.GET("/api/due", getTasks(view, true))
	e.GET("/api/progress", getProgress(progress))
	e.GET("/api/history", getHistory(view, progress))
	e.GET("/api/settings", getSettings(view))
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(log.Fields{"method": v.Method, "uri": v.URI, "status": v.Status}).Debug("http request")
			return nil
		},
	})
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

type tasksResponse struct {
	Tasks []taskDTO `json:"tasks"`
}

func getTasks(view Source, dueOnly bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks := view.Snapshot().Tasks
		out := make([]taskDTO, 0, len(tasks))
		for _, task := range tasks {
			if dueOnly && !task.AnyDue() {
				continue
			}
			out = append(out, toTaskDTO(task))
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: out})
	}
}

type progressResponse struct {
	Users []progressDTO `json:"users"`
}

func getProgress(progress Progress) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, progressResponse{Users: toProgressDTOs(progress.Live())})
	}
}

type historyResponse struct {
	Days []dayDTO `json:"days"`
}

func getHistory(view Source, progress Progress) echo.HandlerFunc {
	return func(c echo.Context) error {
		history := view.Snapshot().History
		days := progress.History()
		out := make([]dayDTO, 0, len(days))
		for i, day := range days {
			dto := dayDTO{Date: day.Date, Goals: day.Goals, Users: toProgressDTOs(day.Users), Tasks: []taskDTO{}}
			if i < len(history) {
				for _, task := range history[i].Tasks {
					dto.Tasks = append(dto.Tasks, toTaskDTO(task))
				}
			}
			out = append(out, dto)
		}
		return c.JSON(http.StatusOK, historyResponse{Days: out})
	}
}

func getSettings(view Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		s := view.Snapshot().Settings
		return c.JSON(http.StatusOK, settingsDTO{
			NameA:         s.NameA,
			NameB:         s.NameB,
			CurrentUserID: string(s.CurrentUserID),
			Theme:         string(s.Theme),
		})
	}
}

type taskDTO struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CompletedA bool   `json:"completedA"`
	CompletedB bool   `json:"completedB"`
	IsDueA     bool   `json:"isDueA"`
	IsDueB     bool   `json:"isDueB"`
	CreatedAt  int64  `json:"createdAt"`
}

func toTaskDTO(task model.Task) taskDTO {
	return taskDTO{
		ID:         task.ID,
		Text:       task.Text,
		CompletedA: task.Completed(model.UserA),
		CompletedB: task.Completed(model.UserB),
		IsDueA:     task.Due(model.UserA),
		IsDueB:     task.Due(model.UserB),
		CreatedAt:  task.CreatedAt.UnixMilli(),
	}
}

type progressDTO struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	StudyTime  int64  `json:"studyTime"`
	Formatted  string `json:"studyTimeFormatted"`
}

func toProgressDTOs(users []service.UserProgress) []progressDTO {
	out := make([]progressDTO, 0, len(users))
	for _, p := range users {
		out = append(out, progressDTO{
			UserID:     string(p.UserID),
			Name:       p.Name,
			Completed:  p.Completed,
			Total:      p.Total,
			Percentage: p.Percentage,
			StudyTime:  p.StudyTime,
			Formatted:  service.FormatDuration(p.StudyTime),
		})
	}
	return out
}

type dayDTO struct {
	Date  string        `json:"date"`
	Goals int           `json:"goals"`
	Users []progressDTO `json:"users"`
	Tasks []taskDTO     `json:"tasks"`
}

type settingsDTO struct {
	NameA         string `json:"nameA"`
	NameB         string `json:"nameB"`
	CurrentUserID string `json:"currentUserId"`
	Theme         string `json:"theme"`
}
