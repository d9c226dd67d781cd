package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/middleware"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	Store      *database.Store
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
	// AllowRegistration is the fallback when the allow_registration
	// setting key is absent from the store.
	AllowRegistration bool
}

// NewAuthHandler constructor.
func NewAuthHandler(store *database.Store, secret string, ttlHours, bcryptCost int, allowRegistration bool) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	if bcryptCost <= 0 {
		bcryptCost = 12
	}
	return &AuthHandler{
		Store:             store,
		Secret:            secret,
		SessionTTL:        time.Duration(ttlHours) * time.Hour,
		BcryptCost:        bcryptCost,
		AllowRegistration: allowRegistration,
	}
}

// ---------- register ----------

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "username", "password"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(req.Username) {
		util.Fail(c, util.ValidationErr("username must be 3-32 letters, digits or underscores", "username"))
		return
	}
	if len(req.Password) < 8 {
		util.Fail(c, util.ValidationErr("password must be at least 8 characters", "password"))
		return
	}

	db := h.Store.Get()

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query users failed")
		return
	}

	// The first user ever becomes the administrator and is always
	// allowed in, whatever the registration setting says.
	firstUser := userCount == 0
	if !firstUser && !h.registrationAllowed(db) {
		util.Fail(c, util.ForbiddenErr("registration is disabled"))
		return
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", req.Username).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query users failed")
		return
	}
	if count > 0 {
		util.Fail(c, util.ConflictErr("username already taken"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "hash password failed")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		IsAdmin:      firstUser,
	}
	if err := db.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create user failed")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// registrationAllowed consults the stored setting first and falls back
// to the config/env flag when the key is unset.
func (h *AuthHandler) registrationAllowed(db *gorm.DB) bool {
	var setting models.Setting
	err := db.First(&setting, "key = ?", models.SettingAllowRegistration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return h.AllowRegistration
	}
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(setting.Value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ---------- login ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "username", "password"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	db := h.Store.Get()

	var user models.User
	if err := db.Where("LOWER(username) = LOWER(?)", req.Username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		return
	}

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(h.SessionTTL),
	}
	if err := db.Create(&session).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create session failed")
		return
	}

	token, err := util.GenerateSessionToken(h.Secret, session.ID, h.SessionTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "generate token failed")
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(h.SessionTTL.Seconds()), "/", "", false, true)

	util.Success(c, util.Response{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if v, ok := c.Get("currentSession"); ok {
		if session, ok := v.(*models.Session); ok && session != nil {
			db := h.Store.Get()
			_ = db.Model(session).Update("revoked", true).Error
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)

	util.Success(c, util.Response{
		"message": "logged out",
	})
}

// GetMe returns the current logged-in user (requires AuthRequired).
func GetMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
		},
	})
}
