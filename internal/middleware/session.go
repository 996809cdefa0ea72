package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/internal/session"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
)

const sessionKey = "session"

type SessionMiddleware struct {
	manager *session.Manager
	auditor *audit.Service
	metrics *metrics.Metrics
}

func NewSessionMiddleware(manager *session.Manager, auditor *audit.Service, m *metrics.Metrics) *SessionMiddleware {
	return &SessionMiddleware{manager: manager, auditor: auditor, metrics: m}
}

// Guard sits at the top of every protected route. A request without a
// live session is denied, audited ACCESS_DENIED, and never reaches
// the handler. Allowed requests slide the inactivity window.
func (m *SessionMiddleware) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			m.deny(c, nil)
			return
		}

		sess, err := m.manager.Guard(c.Request.Context(), token)
		if err != nil {
			m.deny(c, nil)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// RequireRole gates a route on the session's role. The session guard
// must run first.
func (m *SessionMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		if sess == nil || sess.Role != role {
			m.deny(c, sess)
			return
		}
		c.Next()
	}
}

func (m *SessionMiddleware) deny(c *gin.Context, sess *model.Session) {
	userID := uuid.Nil
	username := ""
	if sess != nil {
		userID = sess.UserID
		username = sess.Username
	}

	m.auditor.Record(c.Request.Context(), audit.Entry{
		UserID:      userID,
		Username:    username,
		Action:      model.AuditAccessDenied,
		Description: c.Request.Method + " " + c.Request.URL.Path,
		IPAddress:   httputil.ClientIP(c.Request),
	})
	if m.metrics != nil {
		m.metrics.SessionsRejected.Inc()
	}

	c.JSON(http.StatusUnauthorized, httputil.NewErrorResponse("access denied"))
	c.Abort()
}

// SessionFrom returns the authenticated session set by Guard, or nil.
func SessionFrom(c *gin.Context) *model.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, ok := v.(*model.Session)
	if !ok {
		return nil
	}
	return sess
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
