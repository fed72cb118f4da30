package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chartsbridge/internal/classcharts"
	"github.com/chartsbridge/internal/domain"
	"github.com/chartsbridge/internal/sanitize"
)

// droppedItemsHeader reports how many malformed list items the backend sent
// and the bridge skipped, so a frontend can surface partial loss.
const droppedItemsHeader = "X-Dropped-Items"

const dateParamFormat = "2006-01-02"

// PortalHandler handles the pupil-facing portal endpoints.
type PortalHandler struct {
	*Handler
}

// NewPortalHandler creates a new portal handler.
func NewPortalHandler(base *Handler) *PortalHandler {
	return &PortalHandler{Handler: base}
}

// RegisterRoutes registers portal routes.
func (h *PortalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.GetSession)
		r.Get("/homeworks", h.ListHomework)
		r.Post("/homeworks/{homeworkID}/ticked", h.ToggleHomework)
		r.Get("/timetable", h.GetTimetable)
	})
}

type loginRequest struct {
	PupilCode   string `json:"pupil_code"`
	DateOfBirth string `json:"date_of_birth"`
}

// Login authenticates against ClassCharts and persists the credentials for
// silent re-login on the next start.
func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dob, err := time.Parse(dateParamFormat, req.DateOfBirth)
	if err != nil {
		Error(w, http.StatusBadRequest, "date_of_birth must be yyyy-mm-dd")
		return
	}

	firstName, err := h.client.Login(r.Context(), dob, req.PupilCode)
	if err != nil {
		slog.Warn("Login failed", "error", err)
		status, msg := clientError(err)
		Error(w, status, msg)
		return
	}

	creds := &domain.SavedCredentials{PupilCode: req.PupilCode, DateOfBirth: dob}
	if err := h.creds.Save(r.Context(), creds); err != nil {
		// The session is live; losing persistence only costs the next
		// silent re-login.
		slog.Error("Failed to persist credentials", "error", err)
	}

	JSON(w, http.StatusOK, map[string]string{"first_name": firstName})
}

// Logout drops the session and clears saved credentials.
func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.client.Logout()
	if err := h.creds.Clear(r.Context()); err != nil {
		slog.Error("Failed to clear credentials", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear saved credentials")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// GetSession returns the current session state.
func (h *PortalHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	session := h.client.Session()
	JSON(w, http.StatusOK, map[string]interface{}{
		"logged_in":  session.Active(),
		"first_name": session.FirstName,
		"user_id":    session.UserID,
	})
}

// ListHomework returns the homework list with markup stripped from the text
// fields.
func (h *PortalHandler) ListHomework(w http.ResponseWriter, r *http.Request) {
	tasks, dropped, err := h.client.Homework(r.Context())
	if err != nil {
		status, msg := clientError(err)
		Error(w, status, msg)
		return
	}

	for i := range tasks {
		tasks[i].Title = sanitize.PlainText(tasks[i].Title)
		tasks[i].Description = sanitize.PlainText(tasks[i].Description)
	}

	if dropped > 0 {
		w.Header().Set(droppedItemsHeader, strconv.Itoa(dropped))
	}
	JSON(w, http.StatusOK, tasks)
}

type toggleRequest struct {
	// Completed is the task's current state; the bridge requests the flip.
	Completed bool `json:"completed"`
}

// ToggleHomework flips a homework task's completion state.
func (h *PortalHandler) ToggleHomework(w http.ResponseWriter, r *http.Request) {
	homeworkID, err := strconv.Atoi(chi.URLParam(r, "homeworkID"))
	if err != nil {
		Error(w, http.StatusBadRequest, "homework id must be numeric")
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newState, err := h.client.SetHomeworkTicked(r.Context(), homeworkID, req.Completed)
	if err != nil {
		status, msg := clientError(err)
		Error(w, status, msg)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"completed": newState})
}

// GetTimetable returns the lessons for the date in the query string, or for
// today when none is given.
func (h *PortalHandler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateParamFormat, raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "date must be yyyy-mm-dd")
			return
		}
		date = parsed
	}

	lessons, dropped, err := h.client.Timetable(r.Context(), date)
	if err != nil {
		status, msg := clientError(err)
		Error(w, status, msg)
		return
	}

	if dropped > 0 {
		w.Header().Set(droppedItemsHeader, strconv.Itoa(dropped))
	}
	JSON(w, http.StatusOK, lessons)
}

// RestoreSession attempts a silent login from saved credentials. Rejected
// credentials are cleared so the bridge does not retry them forever; other
// failures (backend down, network) leave them in place.
func (h *PortalHandler) RestoreSession(ctx context.Context) {
	creds, err := h.creds.Load(ctx)
	if err != nil {
		slog.Error("Failed to load saved credentials", "error", err)
		return
	}
	if creds == nil {
		slog.Info("No saved credentials, waiting for login")
		return
	}

	firstName, err := h.client.Login(ctx, creds.DateOfBirth, creds.PupilCode)
	if err != nil {
		if errors.Is(err, classcharts.ErrIncorrectDOB) || errors.Is(err, classcharts.ErrIncorrectPupilCode) {
			slog.Warn("Saved credentials rejected, clearing them", "error", err)
			if clearErr := h.creds.Clear(ctx); clearErr != nil {
				slog.Error("Failed to clear rejected credentials", "error", clearErr)
			}
			return
		}
		slog.Warn("Silent re-login failed, keeping credentials", "error", err)
		return
	}
	slog.Info("Session restored from saved credentials", "first_name", firstName)
}
