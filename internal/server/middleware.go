package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "schemaforge.request_id"
	credentialKey   = "schemaforge.credential"
	envelopeKey     = "schemaforge.envelope"
)

// requestID propagates the caller's X-Request-ID or assigns a fresh one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func logRequests(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// cors allows the listed origins with credentials, any method and any
// header. An empty list disables CORS handling.
func cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if len(allowed) == 0 || origin == "" {
			c.Next()
			return
		}
		ok := allowed[origin]
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""
		if !ok {
			if preflight {
				c.String(http.StatusBadRequest, "Disallowed CORS origin")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		if preflight {
			h.Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
			if req := c.GetHeader("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
			h.Set("Access-Control-Max-Age", "600")
			c.String(http.StatusOK, "OK")
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearer requires "Authorization: Bearer <credential>" and stores the
// credential for the handlers.
func bearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			render(c, http.StatusForbidden, gin.H{"detail": "Not authenticated"})
			c.Abort()
			return
		}
		c.Set(credentialKey, token)
		c.Next()
	}
}

// validateJSON decodes the body, validates it against target and stores the
// normalized value under envelopeKey. Invalid bodies are answered with 422
// and the issue list.
func validateJSON(target *descriptor.Descriptor, maxBytes int64, opt sf.DecodeOpt) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				render(c, http.StatusRequestEntityTooLarge, gin.H{"detail": "request body too large"})
			} else {
				render(c, http.StatusBadRequest, gin.H{"detail": err.Error()})
			}
			c.Abort()
			return
		}
		v, err := sf.DecodeJSON(body, opt)
		if err == nil {
			v, err = target.Parse(c.Request.Context(), v)
		}
		if err != nil {
			iss, _ := sf.AsIssues(err)
			render(c, http.StatusUnprocessableEntity, issuePayload(iss))
			c.Abort()
			return
		}
		c.Set(envelopeKey, v)
		c.Next()
	}
}
