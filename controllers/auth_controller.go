package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/middleware"
	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

const sessionDuration = 72 * time.Hour

// AuthController handles registration, login and logout for browser clients.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// RegisterPage renders the registration form.
func (a *AuthController) RegisterPage(ctx *gin.Context) {
	if _, ok := getUserID(ctx); ok {
		ctx.Redirect(http.StatusSeeOther, "/")
		return
	}
	render(ctx, http.StatusOK, "register.html", gin.H{"Username": "", "Email": ""})
}

// Register creates an account from the submitted form, signs the user in and
// redirects to their profile. Username uniqueness is enforced by the store's
// constraint, not a prior existence check.
func (a *AuthController) Register(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")
	confirm := ctx.PostForm("confirm")

	fail := func(msg string) {
		render(ctx, http.StatusBadRequest, "register.html", gin.H{
			"Error":    msg,
			"Username": username,
			"Email":    email,
		})
	}

	if l := len([]rune(username)); l < 3 || l > 64 {
		fail("username must be 3-64 characters")
		return
	}
	if email == "" || !strings.Contains(email, "@") {
		fail("a valid email is required")
		return
	}
	if len(password) < 6 {
		fail("password must be at least 6 characters")
		return
	}
	if password != confirm {
		fail("passwords do not match")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to process registration")
		return
	}

	user := models.User{Username: username, Email: email, PasswordHash: hash}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
	if err != nil {
		if utils.IsDuplicateKeyErr(err) {
			fail("username is already taken")
			return
		}
		utils.Sugar.Errorf("register: create user failed: %v", err)
		renderError(ctx, http.StatusInternalServerError, "failed to create account")
		return
	}

	a.startSession(ctx, &user, "/profile")
}

// LoginPage renders the login form.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	if _, ok := getUserID(ctx); ok {
		ctx.Redirect(http.StatusSeeOther, "/")
		return
	}
	render(ctx, http.StatusOK, "login.html", gin.H{"Next": ctx.Query("next"), "Username": ""})
}

// Login verifies credentials and starts a cookie session.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	next := ctx.PostForm("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/"
	}

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil ||
		!utils.CheckPassword(user.PasswordHash, password) {
		render(ctx, http.StatusUnauthorized, "login.html", gin.H{
			"Error":    "invalid username or password",
			"Username": username,
			"Next":     next,
		})
		return
	}

	a.startSession(ctx, &user, next)
}

// Logout revokes the session token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(middleware.TokenCookieName); err == nil && token != "" {
		expiresAt := time.Now().Add(sessionDuration)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(token, expiresAt)
	}
	ctx.SetCookie(middleware.TokenCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusSeeOther, "/")
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User, next string) {
	token, err := utils.GenerateToken(user.ID, user.Username, sessionDuration)
	if err != nil {
		utils.Sugar.Errorf("failed to generate token for user %d: %v", user.ID, err)
		renderError(ctx, http.StatusInternalServerError, "failed to start session")
		return
	}
	ctx.SetCookie(middleware.TokenCookieName, token, int(sessionDuration.Seconds()), "/", "", false, true)
	ctx.Redirect(http.StatusSeeOther, next)
}
