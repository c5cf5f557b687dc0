package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/snelcrm/internal/observability/context"
)

const (
	// HeaderRole carries the console role picked on the role-select screen.
	HeaderRole = "X-Role"
	// HeaderAgent identifies the agent or cashier acting, when there is one.
	HeaderAgent = "X-Agent-ID"
)

// authorize gates a route on the caller's role.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.TrimSpace(c.GetHeader(HeaderRole))
		if role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), role, c.GetHeader(HeaderAgent)))
		c.Next()
	}
}

// agentID prefers an explicit value over the acting agent header.
func agentID(c *gin.Context, explicit string) string {
	if value := strings.TrimSpace(explicit); value != "" {
		return value
	}
	return strings.TrimSpace(c.GetHeader(HeaderAgent))
}
