package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/metadata"
)

// HeaderUserID names the caller for audit fields. It is not authentication.
const HeaderUserID = "X-User-ID"

type userIDKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the acting user from the context, falling back to gRPC
// metadata. Empty when the caller did not say.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// Middleware copies the X-User-ID header into the request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(HeaderUserID); id != "" {
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), id))
		}
		c.Next()
	}
}
