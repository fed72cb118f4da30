package classcharts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chartsbridge/internal/metrics"
)

// dobFormat is the dd/mm/yyyy form the login endpoint expects.
const dobFormat = "02/01/2006"

// loginResponse carries the initial session token. The login response does
// not include the user profile; that comes from the follow-up ping.
type loginResponse struct {
	Meta struct {
		SessionID string `json:"session_id"`
	} `json:"meta"`
}

// pingResponse is the heartbeat envelope. The backend may rotate the session
// token here; with include_data=true it also carries the user profile.
type pingResponse struct {
	Meta struct {
		SessionID string `json:"session_id"`
	} `json:"meta"`
	Data struct {
		User struct {
			ID        int    `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"user"`
	} `json:"data"`
}

// Login authenticates with a date of birth and pupil code and returns the
// pupil's first name. On success the client holds an active session; the
// caller should persist the credentials for silent re-login.
func (c *Client) Login(ctx context.Context, dateOfBirth time.Time, pupilCode string) (string, error) {
	code := strings.TrimSpace(pupilCode)
	if code == "" {
		metrics.LoginFailures.WithLabelValues("empty_code").Inc()
		return "", ErrIncorrectPupilCode
	}

	form := url.Values{
		"code":            {code},
		"dob":             {dateOfBirth.Format(dobFormat)},
		"recaptcha-token": {recaptchaPlaceholder},
	}

	body, err := c.postForm(ctx, "/login", "", form)
	if err != nil {
		metrics.LoginFailures.WithLabelValues("transport").Inc()
		return "", err
	}
	if len(body) == 0 {
		metrics.LoginFailures.WithLabelValues("no_data").Inc()
		return "", ErrNoData
	}

	// The backend reports bad credentials as HTTP 200 with a message in the
	// body, so sniff those before structured parsing.
	if err := classifyLoginBody(body); err != nil {
		metrics.LoginFailures.WithLabelValues(loginFailureReason(err)).Inc()
		return "", err
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.LoginFailures.WithLabelValues("malformed").Inc()
		return "", fmt.Errorf("parse login response: %w", ErrInvalidResponse)
	}
	if parsed.Meta.SessionID == "" {
		metrics.LoginFailures.WithLabelValues("no_session_id").Inc()
		return "", fmt.Errorf("login response without session id: %w", ErrMissingUserData)
	}

	// Resolve the pupil's name and numeric id; the toggle and timetable
	// endpoints need the id. The ping may rotate the token, so adopt
	// whichever token it returns.
	profile, err := c.ping(ctx, parsed.Meta.SessionID)
	if err != nil {
		metrics.LoginFailures.WithLabelValues("profile").Inc()
		return "", err
	}
	if profile.Data.User.ID == 0 || profile.Data.User.FirstName == "" {
		metrics.LoginFailures.WithLabelValues("profile").Inc()
		return "", fmt.Errorf("ping response without user profile: %w", ErrMissingUserData)
	}

	token := profile.Meta.SessionID
	if token == "" {
		token = parsed.Meta.SessionID
	}

	c.mu.Lock()
	c.session.Token = token
	c.session.UserID = profile.Data.User.ID
	c.session.FirstName = profile.Data.User.FirstName
	c.session.LastRefreshedAt = c.now()
	c.mu.Unlock()

	metrics.Heartbeats.Inc()
	c.publish(EventLogin)
	c.logger.Info("logged in", "user_id", profile.Data.User.ID)

	return profile.Data.User.FirstName, nil
}

func loginFailureReason(err error) string {
	switch err {
	case ErrIncorrectDOB:
		return "incorrect_dob"
	case ErrIncorrectPupilCode:
		return "incorrect_code"
	default:
		return "other"
	}
}

// ping issues the heartbeat POST with include_data=true, authenticated with
// the given token, and returns the parsed envelope.
func (c *Client) ping(ctx context.Context, token string) (*pingResponse, error) {
	form := url.Values{"include_data": {"true"}}
	body, err := c.postForm(ctx, "/ping", token, form)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrNoData
	}

	var parsed pingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse ping response: %w", ErrInvalidResponse)
	}
	if parsed.Meta.SessionID == "" {
		return nil, fmt.Errorf("ping response without session id: %w", ErrMissingUserData)
	}
	return &parsed, nil
}

// postForm issues a form-encoded POST. A non-empty token is sent as the
// Basic-scheme Authorization header the backend expects.
func (c *Client) postForm(ctx context.Context, path, token string, form url.Values) ([]byte, error) {
	target, err := c.endpoint(path, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RequestError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Basic "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "post " + path, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = readBody(resp)
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	return readBody(resp)
}
