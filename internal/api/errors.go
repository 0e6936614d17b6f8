package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/and161185/jobassist/internal/errs"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Normalize maps a non-success response onto *errs.Error. The message is the
// body's "error" field, then its "message" field, then errs.GenericMessage.
func Normalize(status int, body io.Reader) *errs.Error {
	e := &errs.Error{Kind: kindForStatus(status), Status: status, Message: errs.GenericMessage}
	if body == nil {
		return e
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return e
	}
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return e
	}
	switch v := payload.Error.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			e.Message = v
			return e
		}
	case map[string]any:
		if m, ok := v["message"].(string); ok && strings.TrimSpace(m) != "" {
			e.Message = m
			return e
		}
	}
	if strings.TrimSpace(payload.Message) != "" {
		e.Message = payload.Message
	}
	return e
}

func kindForStatus(status int) errs.Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.KindUnauthorized
	case http.StatusNotFound:
		return errs.KindNotFound
	default:
		return errs.KindResponse
	}
}
