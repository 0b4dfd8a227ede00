package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

const (
	ctxUserID    = "user_id"
	ctxUsername  = "username"
	ctxSessionID = "session_id"
)

// issueToken generates a JWT for the user with a fresh session id. The
// session id, not the user id, keys the binding: two logins of the same user
// are two independent sessions.
func (h *Handler) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"sid":      uuid.New().String(),
		"exp":      time.Now().Add(h.tokenTTL).Unix(),
		"iss":      "chatrelay-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

func (h *Handler) parseToken(tokenString string) (userID, username, sessionID string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", "", jwt.ErrTokenInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", jwt.ErrTokenInvalidClaims
	}
	userID, _ = claims["user_id"].(string)
	username, _ = claims["username"].(string)
	sessionID, _ = claims["sid"].(string)
	if userID == "" || sessionID == "" {
		return "", "", "", jwt.ErrTokenInvalidClaims
	}
	return userID, username, sessionID, nil
}

// AuthRequired validates the bearer token and stores the identity on the
// request context.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authorization token missing"})
			return
		}

		userID, username, sessionID, err := h.parseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUsername, username)
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return header[len("Bearer "):]
	}
	// Websocket clients cannot set headers from the browser; allow the token
	// as a query parameter there.
	return c.Query("token")
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and logs it straight in.
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and password are required"})
		return
	}

	handle := storage.NormalizeName(req.Username)
	if _, found, err := h.Store.FindUserByHandle(c.Request.Context(), handle); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error checking username"})
		return
	} else if found {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "username already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error hashing password"})
		return
	}

	user := &models.User{Username: handle, PasswordHash: string(hash), IsOnline: true}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error creating user"})
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "registered", "token": token})
}

// Login verifies credentials, marks the user online and issues a token with
// a fresh session id.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and password are required"})
		return
	}

	user, found, err := h.Store.FindUserByHandle(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error validating user"})
		return
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "incorrect username or password"})
		return
	}

	if err := h.Store.SetOnline(c.Request.Context(), user.ID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error updating presence"})
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "logged in", "token": token})
}

// Logout marks the user offline and drops the session's binding.
func (h *Handler) Logout(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	sessionID := c.GetString(ctxSessionID)

	h.Engine.DropSession(c.Request.Context(), sessionID)
	if err := h.Store.SetOnline(c.Request.Context(), userID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error updating presence"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "logged out"})
}
