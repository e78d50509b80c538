// Command server boots the room substrate process: it validates
// configuration, wires the core components (C1-C5), and serves both the
// HTTP API and the WebSocket transport on one Gin router, following the
// teacher's cmd/v1 bootstrap shape (config -> logging -> metrics -> tracing
// -> router -> graceful shutdown).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/broadcast"
	"github.com/vrsocial/roomcore/internal/v1/config"
	"github.com/vrsocial/roomcore/internal/v1/credential"
	"github.com/vrsocial/roomcore/internal/v1/health"
	"github.com/vrsocial/roomcore/internal/v1/httpapi"
	"github.com/vrsocial/roomcore/internal/v1/logging"
	"github.com/vrsocial/roomcore/internal/v1/matchmaking"
	"github.com/vrsocial/roomcore/internal/v1/middleware"
	"github.com/vrsocial/roomcore/internal/v1/ratelimit"
	"github.com/vrsocial/roomcore/internal/v1/room"
	"github.com/vrsocial/roomcore/internal/v1/sessionmap"
	"github.com/vrsocial/roomcore/internal/v1/tokensvc"
	"github.com/vrsocial/roomcore/internal/v1/tracing"
	"github.com/vrsocial/roomcore/internal/v1/transport"
)

const serviceName = "roomcore"

func main() {
	config.LoadDotenv()

	cfg, err := config.ValidateEnv()
	if err != nil {
		panic(err)
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		panic(err)
	}

	ctx := context.Background()

	if addr := os.Getenv("OTEL_COLLECTOR_ADDR"); addr != "" {
		tp, err := tracing.InitTracer(ctx, serviceName, addr)
		if err != nil {
			logging.Warn(ctx, "tracing disabled: failed to initialize", zap.Error(err))
		} else {
			defer func() { _ = tp.Shutdown(ctx) }()
		}
	}

	var sessions *sessionmap.Map
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		sessions, err = sessionmap.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logging.Warn(ctx, "session map disabled: failed to connect to redis", zap.Error(err))
			sessions = nil
		} else {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		}
	}

	rateLimiter, err := ratelimit.NewRateLimiter(cfg, redisClient)
	if err != nil {
		logging.Fatal(ctx, "failed to construct rate limiter", zap.Error(err))
	}

	credentials := credential.NewStore(credential.NewBcryptHasher())
	tokens := tokensvc.New([]byte(cfg.SigningSecret)).WithLifetime(cfg.TokenLifetime)
	rooms := room.NewRegistry()
	matches := matchmaking.NewQueue()

	hub := transport.NewHub(rooms, tokens, splitOrigins(cfg.AllowedOrigins))
	overlay := broadcast.NewOverlay(rooms, hub)
	hub.SetOverlay(overlay)

	api := httpapi.NewServer(credentials, tokens, rooms, matches, cfg.DefaultRoomCapacity)
	api.SetRoomNotifier(overlay)
	api.SetSessionMap(sessions)
	healthHandler := health.NewHandler(sessions)

	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(otelgin.Middleware(serviceName))

	if cfg.AllowedOrigins != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     splitOrigins(cfg.AllowedOrigins),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.Register(router, rateLimiter.AuthMiddleware(), rateLimiter.GlobalMiddleware(), rateLimiter.RoomsMiddleware())

	router.GET("/ws/rooms/:roomId", func(c *gin.Context) {
		if !rateLimiter.CheckWebSocketConnect(c) {
			return
		}
		hub.ServeWS(c)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal(ctx, "server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if sessions != nil {
		_ = sessions.Close()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "graceful shutdown failed", zap.Error(err))
	}
}

func splitOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
