package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/platform/auth"
)

// AuditEntry records one state-changing API call.
type AuditEntry struct {
	UserID     string
	Role       string
	Action     string // create, update, delete
	Resource   string // appointments, schedule, services, ...
	ResourceID string
	Path       string
	Method     string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every mutating /api/v1 request after it completes and hands the
// entry to the optional recorders. A recorder failure is logged, never returned.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			action := methodAction(req.Method)
			if action == "" || !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			resource, id := resourceFromPath(req.URL.Path)
			rid, _ := c.Get("request_id").(string)

			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				Action:     action,
				Resource:   resource,
				ResourceID: id,
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				RequestID:  rid,
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			if roles := auth.RolesFromContext(req.Context()); len(roles) > 0 {
				entry.Role = roles[0]
			}

			logger.Info().
				Str("audit", "api").
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Int("status", entry.StatusCode).
				Str("request_id", entry.RequestID).
				Msg("audit")

			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Str("request_id", rid).Msg("audit recorder failed")
				}
			}
			return err
		}
	}
}

func methodAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return ""
}

// resourceFromPath splits "/api/v1/<resource>/<id>/..." into resource and id.
func resourceFromPath(path string) (string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")
	resource := parts[0]
	var id string
	if len(parts) > 1 {
		id = parts[1]
	}
	return resource, id
}
