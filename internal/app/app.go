package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "parley/docs"
	"parley/internal/authz"
	"parley/internal/config"
	"parley/internal/handlers"
	"parley/internal/pdf"
	"parley/internal/realtime"
	"parley/internal/repositories"
	"parley/internal/routes"
	"parley/internal/services"
)

// Server holds everything Run starts and later tears down.
type Server struct {
	Router *gin.Engine

	cfg    *config.Config
	db     *sql.DB
	redis  *redis.Client
	relay  *realtime.RedisRelay
	cancel context.CancelFunc
}

type stores struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, *sql.DB, error) {
	switch cfg.Driver {
	case "memory":
		log.Printf("[app][db] using in-memory store, data is lost on exit")
		return &stores{
			users:    repositories.NewMemoryUserRepository(),
			chats:    repositories.NewMemoryChatRepository(),
			messages: repositories.NewMemoryMessageRepository(),
		}, nil, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.Migrate {
			if err := repositories.EnsureSchema(ctx, db); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		return &stores{
			users:    repositories.NewUserRepository(db),
			chats:    repositories.NewChatRepository(db),
			messages: repositories.NewMessageRepository(db),
		}, db, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// New wires the application without starting the listener.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, db, err := openStores(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, db: db}

	// === Services ===
	expander := repositories.NewExpander(st.users, st.chats, st.messages)
	policy := authz.GroupPolicy{AdminOnly: cfg.Groups.AdminOnly, GroupOnly: cfg.Groups.GroupOnly}
	chatService := services.NewChatService(st.chats, expander, policy)
	messageService := services.NewMessageService(st.messages, st.chats, chatService, expander)

	// === Realtime ===
	registry := realtime.NewRegistry()
	var rooms realtime.Broadcaster = registry
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		s.relay = realtime.NewRedisRelay(registry, s.redis, cfg.Redis.Channel)
		rooms = s.relay
		log.Printf("[app][relay] node=%s channel=%s", s.relay.Node(), cfg.Redis.Channel)
	}
	wsServer := realtime.NewWSServer(realtime.NewGateway(rooms), realtime.WSConfig{
		PingTimeout:  cfg.Realtime.PingTimeout,
		SendBuffer:   cfg.Realtime.SendBuffer,
		MaxFrame:     cfg.Realtime.MaxFrame,
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	// === Handlers ===
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService, pdf.NewTranscriptWriter(cfg.PDF.FontPath))
	wsHandler := handlers.NewWSHandler(wsServer)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORS.AllowOrigins))

	routes.SetupRoutes(router, []byte(cfg.Auth.JWTSecret), chatHandler, messageHandler, wsHandler)
	s.Router = router
	return s, nil
}

// StartRelay runs the cluster relay in the background until Close.
func (s *Server) StartRelay() {
	if s.relay == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.relay.Run(ctx); err != nil {
			log.Printf("[app][relay][err] %v", err)
		}
	}()
}

func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

func Run() {
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("[app] auth.jwt_secret is empty; set it in config or PARLEY_JWT_SECRET")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	srv, err := New(startCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("[app] startup failed: %v", err)
	}
	srv.StartRelay()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[app] listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[app] listen: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// stores close only after in-flight requests have drained
			"http": func(ctx context.Context) error {
				return shutdownInOrder(ctx, httpServer.Shutdown, srv.Close)
			},
		},
	)
	exitCode := <-wait
	log.Printf("[app] exited with code %d", exitCode)
	os.Exit(exitCode)
}

// shutdownInOrder drains the listener, then releases what the handlers use.
// Close runs even when draining times out.
func shutdownInOrder(ctx context.Context, drain func(context.Context) error, release func() error) error {
	drainErr := drain(ctx)
	return errors.Join(drainErr, release())
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
