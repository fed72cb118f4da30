//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chartsbridge/internal/classcharts"
	"github.com/chartsbridge/internal/domain"
)

type fakeClient struct {
	mu          sync.Mutex
	session     domain.Session
	loginErr    error
	homework    []domain.HomeworkTask
	homeworkErr error
	dropped     int
	lessons     []domain.Lesson
	lastToggle  struct {
		id        int
		completed bool
	}
	lastDate time.Time
}

func (f *fakeClient) Login(_ context.Context, dob time.Time, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return "", f.loginErr
	}
	f.session = domain.Session{Token: "tok", UserID: 42, FirstName: "Alex", LastRefreshedAt: time.Now()}
	return "Alex", nil
}

func (f *fakeClient) Logout() {
	f.mu.Lock()
	f.session = domain.Session{}
	f.mu.Unlock()
}

func (f *fakeClient) Session() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeClient) Homework(_ context.Context) ([]domain.HomeworkTask, int, error) {
	return f.homework, f.dropped, f.homeworkErr
}

func (f *fakeClient) SetHomeworkTicked(_ context.Context, id int, completed bool) (bool, error) {
	f.mu.Lock()
	f.lastToggle.id = id
	f.lastToggle.completed = completed
	f.mu.Unlock()
	return !completed, nil
}

func (f *fakeClient) Timetable(_ context.Context, date time.Time) ([]domain.Lesson, int, error) {
	f.mu.Lock()
	f.lastDate = date
	f.mu.Unlock()
	return f.lessons, 0, nil
}

type fakeCredStore struct {
	mu    sync.Mutex
	creds *domain.SavedCredentials
}

func (f *fakeCredStore) Load(_ context.Context) (*domain.SavedCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds, nil
}

func (f *fakeCredStore) Save(_ context.Context, creds *domain.SavedCredentials) error {
	f.mu.Lock()
	f.creds = creds
	f.mu.Unlock()
	return nil
}

func (f *fakeCredStore) Clear(_ context.Context) error {
	f.mu.Lock()
	f.creds = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeCredStore) Ping(_ context.Context) error { return nil }
func (f *fakeCredStore) Close() error                 { return nil }

func newTestHandler(client *fakeClient, creds *fakeCredStore) http.Handler {
	h := NewPortalHandler(NewHandler(client, creds))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestLoginPersistsCredentials(t *testing.T) {
	client := &fakeClient{}
	creds := &fakeCredStore{}
	router := newTestHandler(client, creds)

	body := bytes.NewBufferString(`{"pupil_code":"ABC123","date_of_birth":"2010-05-01"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", body))

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["first_name"] != "Alex" {
		t.Errorf("first_name = %q, want Alex", resp["first_name"])
	}
	if creds.creds == nil || creds.creds.PupilCode != "ABC123" {
		t.Errorf("credentials not persisted: %+v", creds.creds)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	client := &fakeClient{loginErr: classcharts.ErrIncorrectPupilCode}
	router := newTestHandler(client, &fakeCredStore{})

	body := bytes.NewBufferString(`{"pupil_code":"WRONG","date_of_birth":"2010-05-01"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", body))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestLoginRejectsBadDate(t *testing.T) {
	router := newTestHandler(&fakeClient{}, &fakeCredStore{})

	body := bytes.NewBufferString(`{"pupil_code":"ABC123","date_of_birth":"01/05/2010"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-ISO date", w.Code)
	}
}

func TestListHomeworkSanitizesAndReportsDrops(t *testing.T) {
	client := &fakeClient{
		homework: []domain.HomeworkTask{{
			ID:          7,
			Title:       "<strong>Read</strong> chapter&nbsp;4",
			Subject:     "English",
			Description: "pages 60&amp;ndash;82<br>all questions",
		}},
		dropped: 2,
	}
	router := newTestHandler(client, &fakeCredStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/homeworks", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Dropped-Items"); got != "2" {
		t.Errorf("X-Dropped-Items = %q, want 2", got)
	}

	var tasks []domain.HomeworkTask
	if err := json.NewDecoder(w.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tasks[0].Title != "Read chapter 4" {
		t.Errorf("title not sanitized: %q", tasks[0].Title)
	}
}

func TestHomeworkWithoutSession(t *testing.T) {
	client := &fakeClient{homeworkErr: classcharts.ErrNoSession}
	router := newTestHandler(client, &fakeCredStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/homeworks", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestToggleHomework(t *testing.T) {
	client := &fakeClient{}
	router := newTestHandler(client, &fakeCredStore{})

	body := bytes.NewBufferString(`{"completed":false}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/homeworks/7/ticked", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["completed"] {
		t.Error("toggling an incomplete task must report completed=true")
	}
	if client.lastToggle.id != 7 || client.lastToggle.completed {
		t.Errorf("client called with %+v", client.lastToggle)
	}
}

func TestToggleRejectsBadID(t *testing.T) {
	router := newTestHandler(&fakeClient{}, &fakeCredStore{})

	body := bytes.NewBufferString(`{"completed":false}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/homeworks/abc/ticked", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTimetableDateParam(t *testing.T) {
	client := &fakeClient{}
	router := newTestHandler(client, &fakeCredStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/timetable?date=2024-03-04", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	if !client.lastDate.Equal(want) {
		t.Errorf("client called with date %v, want %v", client.lastDate, want)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/timetable?date=tomorrow", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
}

func TestLogoutClearsCredentials(t *testing.T) {
	client := &fakeClient{}
	creds := &fakeCredStore{creds: &domain.SavedCredentials{PupilCode: "ABC123"}}
	router := newTestHandler(client, creds)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if creds.creds != nil {
		t.Error("logout must clear saved credentials")
	}
	if client.Session().Active() {
		t.Error("logout must drop the session")
	}
}

func TestRestoreSession(t *testing.T) {
	client := &fakeClient{}
	creds := &fakeCredStore{creds: &domain.SavedCredentials{
		PupilCode:   "ABC123",
		DateOfBirth: time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC),
	}}
	h := NewPortalHandler(NewHandler(client, creds))

	h.RestoreSession(context.Background())
	if !client.Session().Active() {
		t.Error("RestoreSession with valid saved credentials should log in")
	}
}

func TestRestoreSessionClearsRejectedCredentials(t *testing.T) {
	client := &fakeClient{loginErr: classcharts.ErrIncorrectDOB}
	creds := &fakeCredStore{creds: &domain.SavedCredentials{PupilCode: "ABC123"}}
	h := NewPortalHandler(NewHandler(client, creds))

	h.RestoreSession(context.Background())
	if creds.creds != nil {
		t.Error("rejected saved credentials must be cleared")
	}
}

func TestRestoreSessionKeepsCredentialsOnTransportError(t *testing.T) {
	client := &fakeClient{loginErr: &classcharts.RequestError{Op: "post /login", Err: context.DeadlineExceeded}}
	creds := &fakeCredStore{creds: &domain.SavedCredentials{PupilCode: "ABC123"}}
	h := NewPortalHandler(NewHandler(client, creds))

	h.RestoreSession(context.Background())
	if creds.creds == nil {
		t.Error("transport failure during silent re-login must keep credentials")
	}
}
