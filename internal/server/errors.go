package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	j "github.com/goccy/go-json"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/compiler"
	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/grammar"
)

type issueBody struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// issuePayload shapes Issues for 422 responses.
func issuePayload(iss sf.Issues) gin.H {
	out := make([]issueBody, 0, len(iss))
	for _, it := range iss {
		out = append(out, issueBody{Path: it.Path, Code: it.Code, Message: it.Message, Params: it.Params})
	}
	return gin.H{"detail": out}
}

// render writes v as JSON with goccy/go-json so ordered objects and decimals
// keep their own encodings.
func render(c *gin.Context, status int, v any) {
	b, err := j.Marshal(v)
	if err != nil {
		c.String(http.StatusInternalServerError, "encoding response: %v", err)
		return
	}
	c.Data(status, "application/json", b)
}

// fail maps an error from compilation or extraction onto a response.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		ex *extract.RetriesExhaustedError
		pe *extract.ProviderError
		ie *extract.InputError
		ce *compiler.ConstructionError
		se *grammar.StructuralError
	)
	switch {
	case errors.As(err, &ex):
		s.log.WarnContext(c.Request.Context(), "extraction exhausted", "attempts", ex.Attempts, "error", ex.Cause, "request_id", c.GetString(requestIDKey))
		render(c, http.StatusInternalServerError, gin.H{"detail": exhaustedDetail(ex)})
	case errors.As(err, &pe):
		status := pe.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		render(c, status, gin.H{"detail": pe.Error()})
	case errors.As(err, &ie):
		render(c, http.StatusUnprocessableEntity, issuePayload(sf.Issues{ie.Issue()}))
	case errors.As(err, &ce):
		render(c, http.StatusUnprocessableEntity, issuePayload(sf.Issues{ce.Issue()}))
	case errors.As(err, &se):
		render(c, http.StatusUnprocessableEntity, issuePayload(se.Issues))
	case errors.Is(err, context.DeadlineExceeded):
		render(c, http.StatusGatewayTimeout, gin.H{"detail": err.Error()})
	default:
		if iss, ok := sf.AsIssues(err); ok {
			render(c, http.StatusUnprocessableEntity, issuePayload(iss))
			return
		}
		s.log.ErrorContext(c.Request.Context(), "request failed", "error", err, "request_id", c.GetString(requestIDKey))
		render(c, http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}

func exhaustedDetail(ex *extract.RetriesExhaustedError) gin.H {
	msg := "unknown error"
	if iss, ok := ex.Cause.(sf.Issues); ok {
		msg = iss.Detail()
	} else if ex.Cause != nil {
		msg = ex.Cause.Error()
	}
	return gin.H{
		"error":           msg,
		"last_completion": ex.LastCompletion,
		"n_attempts":      ex.Attempts,
		"messages":        ex.Messages,
		"total_usage":     ex.TotalUsage,
	}
}
