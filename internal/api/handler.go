// Package api provides the HTTP surface a frontend consumes: login, session
// state, homework, and timetable, all backed by the ClassCharts client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chartsbridge/internal/classcharts"
	"github.com/chartsbridge/internal/credstore"
	"github.com/chartsbridge/internal/domain"
)

// StudentClient is the slice of the ClassCharts client the handlers need.
type StudentClient interface {
	Login(ctx context.Context, dateOfBirth time.Time, pupilCode string) (string, error)
	Logout()
	Session() domain.Session
	Homework(ctx context.Context) ([]domain.HomeworkTask, int, error)
	SetHomeworkTicked(ctx context.Context, homeworkID int, completed bool) (bool, error)
	Timetable(ctx context.Context, date time.Time) ([]domain.Lesson, int, error)
}

// Handler provides common handler utilities.
type Handler struct {
	client StudentClient
	creds  credstore.Repository
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(client StudentClient, creds credstore.Repository) *Handler {
	return &Handler{client: client, creds: creds}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// clientError maps a classcharts error onto an HTTP status and message.
func clientError(err error) (int, string) {
	var serverErr *classcharts.ServerError
	switch {
	case errors.Is(err, classcharts.ErrIncorrectDOB):
		return http.StatusUnprocessableEntity, "incorrect date of birth"
	case errors.Is(err, classcharts.ErrIncorrectPupilCode):
		return http.StatusUnprocessableEntity, "incorrect pupil code"
	case errors.Is(err, classcharts.ErrNoSession):
		return http.StatusUnauthorized, "not logged in"
	case errors.Is(err, classcharts.ErrSessionExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "classcharts timed out"
	case errors.As(err, &serverErr):
		return http.StatusBadGateway, serverErr.Error()
	default:
		return http.StatusBadGateway, "classcharts request failed"
	}
}
