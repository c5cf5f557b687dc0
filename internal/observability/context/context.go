package context

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	requestIDKey contextKey = "observability_request_id"
	roleKey      contextKey = "observability_role"
	actorIDKey   contextKey = "observability_actor_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithActor records the console role and the acting agent for log correlation.
func WithActor(ctx context.Context, role, actorID string) context.Context {
	if ctx == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, roleKey, strings.TrimSpace(role))
	return context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	role, _ := ctx.Value(roleKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return role, actorID
}

func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value := RequestIDFromContext(c.Request.Context()); value != "" {
		return value
	}
	return strings.TrimSpace(c.GetString("request_id"))
}
