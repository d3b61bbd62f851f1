package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/honeybarrel/forum/config"
	"github.com/honeybarrel/forum/middleware"
)

// isHTMX reports whether the request came from an HTMX partial-update client.
// Only an explicit true/1 counts; proxies occasionally forward empty headers.
func isHTMX(ctx *gin.Context) bool {
	v := strings.ToLower(ctx.GetHeader("HX-Request"))
	return v == "true" || v == "1"
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func currentUsername(ctx *gin.Context) string {
	v, _ := ctx.Get(middleware.ContextUsernameKey)
	s, _ := v.(string)
	return s
}

func isAdmin(ctx *gin.Context) bool {
	uname := currentUsername(ctx)
	if uname == "" {
		return false
	}
	cfg := config.Get()
	for _, u := range cfg.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

// render writes an HTML page, always exposing the viewer's identity so the
// shared navigation can show login state.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if uid, ok := getUserID(ctx); ok {
		data["CurrentUserID"] = uid
		data["CurrentUsername"] = currentUsername(ctx)
		data["IsAdmin"] = isAdmin(ctx)
	}
	ctx.HTML(status, name, data)
}

// renderError writes the shared error page with the given status.
func renderError(ctx *gin.Context, status int, message string) {
	render(ctx, status, "error.html", gin.H{"Status": status, "Message": message})
	ctx.Abort()
}

// formInt parses a form value into a positive int, falling back to def when
// absent or unparseable.
func formInt(ctx *gin.Context, key string, def int) int {
	v := strings.TrimSpace(ctx.PostForm(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// formBool reads a checkbox-style form value. Browsers send "on" for a bare
// checkbox and whatever the value attribute holds otherwise.
func formBool(ctx *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(ctx.PostForm(key))) {
	case "1", "on", "true":
		return true
	}
	return false
}

// queryPage parses the ?page query parameter, defaulting to 1.
func queryPage(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
