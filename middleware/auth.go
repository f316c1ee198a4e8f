package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bondlyapp/bondly/utils"
)

// Context keys set by AuthRequired for downstream handlers.
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthRequired rejects requests without a valid, non-revoked bearer token and
// stores the authenticated identity in the request context.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "missing or malformed authorization header")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(token) {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "invalid or expired token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, bool) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
