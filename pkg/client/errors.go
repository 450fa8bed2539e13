package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/moogar0880/problems"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrBadResponse = errors.New("malformed response")
)

// APIError is a non-2xx answer from the workflow service.
type APIError struct {
	Op         string
	StatusCode int
	Type       string
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	return nil
}

// UserMessage is the text shown in the editor banner. Server errors carry
// no user-facing detail.
func (e *APIError) UserMessage() string {
	if e.StatusCode >= http.StatusInternalServerError {
		return ""
	}

	return e.Detail
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// newAPIError decodes an RFC 7807 problem or a {"detail": ...} body.
// Validation detail lists are joined by their "msg" fields.
func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status}

	problem := decodeProblem(body)
	if problem != nil {
		apiErr.Type = problem.Type
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
	}

	if apiErr.Title == "" {
		apiErr.Title = http.StatusText(status)
	}

	return apiErr
}

func decodeProblem(body []byte) *problems.Problem {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}

	problem := &problems.Problem{}

	_ = json.Unmarshal(fields["type"], &problem.Type)
	_ = json.Unmarshal(fields["title"], &problem.Title)
	_ = json.Unmarshal(fields["status"], &problem.Status)
	_ = json.Unmarshal(fields["instance"], &problem.Instance)

	raw, ok := fields["detail"]
	if !ok {
		return problem
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		problem.Detail = text

		return problem
	}

	var items []struct {
		Msg string `json:"msg"`
	}

	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}

		problem.Detail = strings.Join(msgs, "; ")
	}

	return problem
}
