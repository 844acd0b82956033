package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/auth"
	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

const (
	userKey         = "user"
	sessionUserID   = "uid"
	sessionUsername = "uname"
)

// IdentityMiddleware picks the identity a signaling socket runs under:
// a valid token first, then the userId/username query, then whatever the
// cookie session remembered from an earlier handshake. No identity at all
// gives an anonymous user.
func IdentityMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		user, err := identityFrom(c, cfg, sess)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("rejected identity")
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}

		if user.Identified() {
			sess.Set(sessionUserID, string(user.ID))
			sess.Set(sessionUsername, user.Username)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func identityFrom(c *gin.Context, cfg config.JWTConfig, sess sessions.Session) (domain.User, error) {
	if token := tokenFrom(c); token != "" {
		claims, err := auth.ParseToken(cfg, token)
		if err != nil {
			return domain.User{}, err
		}
		return claims.User(), nil
	}

	id, name := c.Query("userId"), c.Query("username")
	if id == "" {
		if v, ok := sess.Get(sessionUserID).(string); ok {
			id = v
			if name == "" {
				name, _ = sess.Get(sessionUsername).(string)
			}
		}
	}
	u, err := domain.NewUser(id, name)
	if err != nil {
		return domain.User{}, err
	}
	return *u, nil
}

// tokenFrom reads a bearer token from the Authorization header or, for
// browsers that cannot set headers on a WebSocket, the token query.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("token")
}

// BearerMiddleware rejects requests without a valid token.
func BearerMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			errorJSON(c, http.StatusUnauthorized, "no token provided")
			return
		}
		claims, err := auth.ParseToken(cfg, token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				log.Error().Err(err).Str("module", "adapters.http").Msg("token parse")
			}
			errorJSON(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(userKey, claims.User())
		c.Next()
	}
}

// CurrentUser returns the identity a middleware attached to c.
func CurrentUser(c *gin.Context) domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(domain.User); ok {
			return u
		}
	}
	return domain.User{}
}
