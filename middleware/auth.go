package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/honeybarrel/forum/utils"
)

const (
	// ContextUserIDKey stores the authenticated user ID in the gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username in the gin context.
	ContextUsernameKey = "username"
	// TokenCookieName is the session cookie carrying the JWT for browser
	// navigation; API callers may send a Bearer header instead.
	TokenCookieName = "forum_token"
)

// tokenFromRequest extracts the session token from the cookie or the
// Authorization header.
func tokenFromRequest(ctx *gin.Context) string {
	if c, err := ctx.Cookie(TokenCookieName); err == nil && c != "" {
		return c
	}
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired ensures the request carries a valid, unrevoked session token.
// Browser page requests are redirected to the login form; everything else
// gets a 401 envelope.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token == "" {
			rejectUnauthenticated(ctx, 40101, "authentication required")
			return
		}
		if utils.IsTokenBlacklisted(token) {
			rejectUnauthenticated(ctx, 40104, "token revoked")
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			rejectUnauthenticated(ctx, 40105, "invalid token")
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		utils.MarkOnline(claims.Username)
		ctx.Next()
	}
}

// CurrentUser resolves the session token when present without requiring it,
// so public pages can render login state.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token != "" && !utils.IsTokenBlacklisted(token) {
			if claims, err := utils.ParseToken(token); err == nil {
				ctx.Set(ContextUserIDKey, claims.UserID)
				ctx.Set(ContextUsernameKey, claims.Username)
				utils.MarkOnline(claims.Username)
			}
		}
		ctx.Next()
	}
}

func rejectUnauthenticated(ctx *gin.Context, code int, message string) {
	if wantsHTML(ctx) {
		ctx.Redirect(http.StatusSeeOther, "/login?next="+ctx.Request.URL.Path)
		ctx.Abort()
		return
	}
	utils.Error(ctx, http.StatusUnauthorized, code, message)
	ctx.Abort()
}

// wantsHTML reports whether the caller is a browser navigation rather than an
// API or HTMX request.
func wantsHTML(ctx *gin.Context) bool {
	if ctx.GetHeader("HX-Request") != "" {
		return false
	}
	return strings.Contains(ctx.GetHeader("Accept"), "text/html")
}
