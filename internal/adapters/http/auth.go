package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/auth"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expires_at"`
	User      *storage.User `json:"user"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "all fields are required")
		return
	}
	if len(req.Username) > domain.MaxUsernameLen {
		errorJSON(c, http.StatusBadRequest, domain.ErrUsernameTooLong.Error())
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("hash password")
		errorJSON(c, http.StatusInternalServerError, "error creating user")
		return
	}
	now := time.Now().UTC()
	user := &storage.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			errorJSON(c, http.StatusBadRequest, "user already exists")
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Str("user", req.Username).Msg("create user")
		errorJSON(c, http.StatusInternalServerError, "error creating user")
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", user.Username).Str("id", user.ID).Msg("register success")
	a.issueToken(c, http.StatusCreated, "user created successfully", user)
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := a.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorJSON(c, http.StatusBadRequest, "user not found")
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("find user")
		errorJSON(c, http.StatusInternalServerError, "error logging in")
		return
	}
	if err := auth.ComparePassword(user.Password, req.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error().Err(err).Str("module", "adapters.http").Str("user", user.Username).Msg("compare password")
			errorJSON(c, http.StatusInternalServerError, "error logging in")
			return
		}
		log.Info().Str("module", "adapters.http").Str("user", user.Username).Msg("login failed")
		errorJSON(c, http.StatusBadRequest, "invalid credentials")
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", user.Username).Msg("login success")
	a.issueToken(c, http.StatusOK, "login successful", user)
}

func (a *API) issueToken(c *gin.Context, status int, msg string, user *storage.User) {
	token, expires, err := auth.NewToken(a.cfg.JWT, domain.User{ID: domain.UserID(user.ID), Username: user.Username})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("token issue")
		errorJSON(c, http.StatusInternalServerError, "token generation failed")
		return
	}
	c.JSON(status, authResponse{Message: msg, Token: token, ExpiresAt: expires.Unix(), User: user})
}

type onlineUser struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Status   string        `json:"status"`
}

// onlineUsers lists users with a live signaling connection.
func (a *API) onlineUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	users, err := a.orch.Online(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("online users")
		errorJSON(c, http.StatusServiceUnavailable, "error fetching online users")
		return
	}
	out := make([]onlineUser, 0, len(users))
	for _, u := range users {
		out = append(out, onlineUser{ID: u.ID, Username: u.Username, Status: "online"})
	}
	c.JSON(http.StatusOK, out)
}
