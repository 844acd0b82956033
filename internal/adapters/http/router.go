package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/adapters/signal"
	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/storage"
)

const queryTimeout = 2 * time.Second

// API bundles what the REST handlers need.
type API struct {
	cfg   *config.Config
	orch  *orch.Orchestrator
	store storage.Store
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, store storage.Store) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	sessionStore.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("VoiceSessions", sessionStore))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := &API{cfg: cfg, orch: o, store: store}
	limiter := signal.NewRoomRateLimiter(cfg.RateLimit.Messages, cfg.RateLimit.Interval)
	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:  cfg.Socket.ReadLimit,
		PingPeriod: cfg.Socket.PingPeriod,
		PongWait:   cfg.Socket.PongWait,
		WriteWait:  cfg.Socket.WriteWait,
		SendBuffer: cfg.Socket.SendBuffer,
	}, limiter)

	g := r.Group("/api")

	g.GET("/ws/signal", IdentityMiddleware(cfg.JWT), func(c *gin.Context) {
		user := CurrentUser(c)
		log.Info().Str("module", "adapters.http").Str("user", string(user.ID)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, user)
	})

	g.GET("/ice-servers", api.iceServers)
	g.GET("/rooms", api.listRooms)
	g.GET("/rooms/:key/members", api.roomMembers)
	g.GET("/calls", api.activeCalls)

	authGroup := g.Group("/auth")
	authGroup.POST("/register", api.register)
	authGroup.POST("/login", api.login)
	authGroup.GET("/online-users", api.onlineUsers)

	history := g.Group("", BearerMiddleware(cfg.JWT))
	history.GET("/messages/:userId", api.conversation)
	history.POST("/messages", api.postMessage)
	history.GET("/rooms/:key/messages", api.roomHistory)
	history.POST("/rooms/:key/messages", api.postRoomMessage)

	return r
}

func (a *API) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": a.cfg.WebRTCICEServers()})
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
