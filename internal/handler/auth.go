package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sovieeet/gamevault/internal/auth"
	"github.com/sovieeet/gamevault/internal/models"
	"github.com/sovieeet/gamevault/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler owns login, registration, logout and blacklist administration.
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string
	BcryptCost int
	Blacklist  *auth.Blacklist
}

// NewAuthHandler builds the handler from loaded configuration values.
func NewAuthHandler(db *gorm.DB, secret string, ttlMinutes, bcryptCost int, cookieName string, bl *auth.Blacklist) *AuthHandler {
	if ttlMinutes <= 0 {
		ttlMinutes = 30
	}
	return &AuthHandler{
		DB:         db,
		JWTSecret:  secret,
		TokenTTL:   time.Duration(ttlMinutes) * time.Minute,
		CookieName: cookieName,
		BcryptCost: bcryptCost,
		Blacklist:  bl,
	}
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a regular account. The role is always "user" here;
// admin accounts come from RegisterByAdmin or the bootstrap flag.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(req.Username) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username must be 3-20 letters, digits or underscores")
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 64 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-64 characters")
		return
	}

	if err := h.createUser(c, req.Username, req.Password, models.RoleUser); err != nil {
		return
	}

	util.Success(c, util.Response{
		"message":  "user registered successfully",
		"username": req.Username,
	})
}

// createUser inserts a user row, answering the request itself on failure.
func (h *AuthHandler) createUser(c *gin.Context, username, password, role string) error {
	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		return err
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeDuplicate, "username already exists")
		return gorm.ErrDuplicatedKey
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "hash password failed")
		return err
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create user failed")
		return err
	}
	return nil
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues a session token. The token is both
// returned in the body and set as an httponly cookie for browser clients.
// Unknown user and wrong password answer identically.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	h.login(c, strings.TrimSpace(req.Username), req.Password)
}

// Token is the form-encoded variant of Login kept for OAuth2-style clients;
// it expects "username" and "password" form fields.
func (h *AuthHandler) Token(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username and password are required")
		return
	}
	h.login(c, username, password)
}

func (h *AuthHandler) login(c *gin.Context, username, password string) {
	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid username or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid username or password")
		return
	}

	token, err := auth.IssueToken(h.JWTSecret, user.Username, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "issue token failed")
		return
	}

	c.SetCookie(h.CookieName, token, int(h.TokenTTL.Seconds()), "/", "", false, true)

	util.Success(c, util.Response{
		"access_token": token,
		"token_type":   "bearer",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Logout revokes the presented token until its natural expiry and clears the
// cookie. Without a usable token it still clears the cookie and succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	var tokenStr string
	if cookie, err := c.Cookie(h.CookieName); err == nil {
		tokenStr = cookie
	}
	if tokenStr == "" {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr != "" {
		// expired or malformed tokens need no blacklist entry
		if claims, err := auth.VerifyToken(h.JWTSecret, tokenStr); err == nil {
			h.Blacklist.Revoke(tokenStr, claims.ExpiresAt.Time)
		}
	}

	c.SetCookie(h.CookieName, "", -1, "/", "", false, true)
	util.Success(c, util.Response{
		"message": "successfully logged out",
	})
}

type registerByAdminReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// RegisterByAdmin creates an account with an explicit role. Admin only.
func (h *AuthHandler) RegisterByAdmin(c *gin.Context) {
	if _, ok := requireAdmin(c, h.DB); !ok {
		return
	}

	var req registerByAdminReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(req.Username) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username must be 3-20 letters, digits or underscores")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "role must be admin or user")
		return
	}

	if err := h.createUser(c, req.Username, req.Password, req.Role); err != nil {
		return
	}

	util.Success(c, util.Response{
		"message":  "user registered successfully",
		"username": req.Username,
		"role":     req.Role,
	})
}

// ClearBlacklist wipes the revocation store. Admin only.
func (h *AuthHandler) ClearBlacklist(c *gin.Context) {
	if _, ok := requireAdmin(c, h.DB); !ok {
		return
	}

	h.Blacklist.Clear()
	util.Success(c, util.Response{
		"message": "blacklist cleared successfully",
	})
}
