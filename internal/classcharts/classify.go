package classcharts

import (
	"bytes"
	"encoding/json"
	"strings"
)

// classification is the three-way verdict on an authenticated response body.
// The backend reuses HTTP 200 for both genuine success and session expiry, so
// only body inspection can tell them apart.
type classification int

const (
	classifiedSuccess classification = iota
	classifiedExpired
	classifiedMalformed
)

// envelope is the common shape of authenticated responses.
type envelope struct {
	Success *int            `json:"success"`
	Expired *int            `json:"expired"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func (e *envelope) hasData() bool {
	return len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null"))
}

// classifyResponse parses body into an envelope and decides whether it is a
// success, an expired-session report, or malformed. The backend is
// inconsistent about how it signals expiry: sometimes success=0 with an
// explicit expired=1 flag, sometimes success=0 with data simply absent. Both
// are treated as expiry.
func classifyResponse(body []byte) (envelope, classification) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, classifiedMalformed
	}
	if env.Success != nil && *env.Success == 0 {
		if env.Expired != nil && *env.Expired == 1 {
			return env, classifiedExpired
		}
		if !env.hasData() {
			return env, classifiedExpired
		}
	}
	if env.hasData() {
		return env, classifiedSuccess
	}
	return env, classifiedMalformed
}

// Distinguished login error messages. The backend returns HTTP 200 with a
// human-readable message for these, so they must be sniffed from the raw body
// before any structured parsing.
const (
	incorrectDOBMessage  = "date of birth you have provided is incorrect"
	incorrectCodeMessage = "pupil code you have provided is incorrect"
)

// classifyLoginBody checks the raw login response for the backend's known
// credential-failure messages. Returns nil if neither is present.
func classifyLoginBody(body []byte) error {
	s := string(body)
	if strings.Contains(s, incorrectDOBMessage) {
		return ErrIncorrectDOB
	}
	if strings.Contains(s, incorrectCodeMessage) {
		return ErrIncorrectPupilCode
	}
	return nil
}
