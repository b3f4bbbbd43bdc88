// Package app provides application-level wiring: repositories, cache
// provider, membership handlers, engine, services, and the HTTP router.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GM-Alex/user-access-manager-sub006/internal/access"
	"github.com/GM-Alex/user-access-manager-sub006/internal/api"
	"github.com/GM-Alex/user-access-manager-sub006/internal/cache"
	"github.com/GM-Alex/user-access-manager-sub006/internal/config"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/membership"
	"github.com/GM-Alex/user-access-manager-sub006/internal/middleware"
	"github.com/GM-Alex/user-access-manager-sub006/internal/objectmap"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
	"github.com/GM-Alex/user-access-manager-sub006/internal/repository"
	"github.com/GM-Alex/user-access-manager-sub006/internal/service"
	"github.com/GM-Alex/user-access-manager-sub006/internal/usergroup"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully wired application.
type App struct {
	Engine  *access.Engine
	Groups  *service.GroupService
	Maps    *objectmap.Builder
	Store   domain.CacheStore
	handler *api.Handler
	deps    Deps
}

// New wires the application from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	store, err := newCacheStore(cfg)
	if err != nil {
		return nil, err
	}

	contentRepo := repository.NewContentRepo(deps.ReadDB)
	groupRepo := repository.NewGroupRepo(deps.WriteDB, deps.ReadDB)

	maps := objectmap.NewBuilder(contentRepo, store, deps.Logger.With("component", "objectmap"))

	reg := registry.New()
	reg.RegisterHandler(membership.NewRoleHandler())
	reg.RegisterHandler(membership.NewUserHandler(contentRepo))
	reg.RegisterHandler(membership.NewTermHandler(maps))
	reg.RegisterHandler(membership.NewPostHandler(maps))

	manager := usergroup.NewManager(groupRepo, reg)

	engine := access.NewEngine(reg, manager, contentRepo, access.Settings{
		AuthorsAccessToOwnContent: cfg.Access.AuthorsAccessToOwnContent,
		LockRecursive:             cfg.Access.LockRecursive,
		FullAccessCapability:      cfg.Access.FullAccessCapability,
		HiddenPostTypes:           cfg.HiddenPostTypeSet(),
	}, deps.Logger.With("component", "access"))

	groupSvc := service.NewGroupService(groupRepo, reg, manager, maps, deps.Logger.With("component", "groups"))

	handler := api.NewHandler(engine, groupSvc, reg, cfg.Access.FullAccessCapability, deps.Logger.With("component", "api"))

	return &App{
		Engine:  engine,
		Groups:  groupSvc,
		Maps:    maps,
		Store:   store,
		handler: handler,
		deps:    deps,
	}, nil
}

// Router assembles the middleware stack and mounts the API.
func (a *App) Router() http.Handler {
	cfg := a.deps.Cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.AdminContextHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(middleware.Viewer([]byte(cfg.JWTSecret)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/", a.handler.Routes())

	return r
}

func newCacheStore(cfg *config.Config) (domain.CacheStore, error) {
	switch cfg.CacheProvider {
	case "redis":
		store, err := cache.NewRedis(cfg.RedisURL, cfg.RedisKeyPrefix, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return store, nil
	case "memory":
		return cache.NewMemory(cfg.CacheMaxEntries, cfg.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.CacheProvider)
	}
}
