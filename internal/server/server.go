package server

import (
	"fmt"

	"backend-letterwalk/internal/auth"
	"backend-letterwalk/internal/backend"
	"backend-letterwalk/internal/checkin"
	"backend-letterwalk/internal/config"
	"backend-letterwalk/internal/geolocation"
	"backend-letterwalk/internal/progress"
	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/session"
	"backend-letterwalk/internal/store"
	"backend-letterwalk/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App        *fiber.App
	Cfg        config.Config
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Log        *zap.Logger
	Stream     *stream.Hub
	Store      *store.Observable
	Catalog    route.Catalog
	Backend    *backend.Client
	Sessions   *session.Manager
	Verifier   *checkin.Verifier
	Progress   *progress.Aggregator
	Milestones *progress.Milestones
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Log:    log,
		Stream: stream.NewHub(redisClient, log.Named("stream")),
	}
	if cfg.BackendURL != "" {
		s.Backend = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, log.Named("backend"))
	}

	catalog, err := newCatalog(s)
	if err != nil {
		_ = s.Stream.Close()
		return nil, err
	}
	s.Catalog = catalog
	s.Store = store.NewObservable(newStore(s), s.Stream, log.Named("store"))
	s.Progress = progress.NewAggregator(s.Catalog, s.Store, log.Named("progress"))

	var certifier progress.Certifier
	if s.Backend != nil {
		certifier = s.Backend
	}
	s.Milestones = progress.NewMilestones(s.Progress, certifier, cfg.BackendTimeout, log.Named("milestones"))

	opts := []session.Option{
		session.WithLogger(log.Named("session")),
		session.WithListener(s.Milestones),
		session.WithMirrorTimeout(cfg.BackendTimeout),
	}
	if s.Backend != nil {
		opts = append(opts, session.WithMirror(s.Backend))
	}
	s.Sessions = session.NewManager(s.Catalog, s.Store, opts...)
	s.Verifier = checkin.NewVerifier(s.Catalog, s.Sessions, cfg.CheckinRadiusM, log.Named("checkin"))

	registerRoutes(s)
	return s, nil
}

// Close waits for background dispatches and stops the stream hub.
func (s *Server) Close() error {
	s.Sessions.Wait()
	s.Milestones.Wait()
	return s.Stream.Close()
}

func (s *Server) geolocationOptions() geolocation.Options {
	opts := geolocation.DefaultOptions()
	if s.Cfg.GeolocationTimeout > 0 {
		opts.Timeout = s.Cfg.GeolocationTimeout
	}
	opts.ClockSkew = s.Cfg.FixClockSkew
	return opts
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	account := auth.AccountMiddleware(s.Cfg.JWTSecret, s.Cfg.DefaultAccountID)

	route.RegisterRoutes(s.App.Group("/routes"), s.Catalog)
	session.RegisterRoutes(s.App.Group("/sessions"), s.Sessions, account)
	checkin.RegisterRoutes(s.App.Group("/checkins"), s.Verifier, s.geolocationOptions(), account)
	progress.RegisterRoutes(s.App.Group("/progress"), s.Progress, account)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Catalog, account)
	if s.Backend != nil {
		backend.RegisterRoutes(s.App.Group("/backend"), s.Backend, account)
	}
}

func newStore(s *Server) store.Store {
	switch s.Cfg.StoreDriver {
	case "memory":
		return store.NewMemory()
	case "postgres":
		if s.DB != nil {
			return store.NewPostgres(s.DB)
		}
	default:
		if s.Redis != nil {
			return store.NewRedis(s.Redis, 0)
		}
	}
	s.Log.Warn("store backend unavailable, keeping sessions in memory", zap.String("driver", s.Cfg.StoreDriver))
	return store.NewMemory()
}

func newCatalog(s *Server) (route.Catalog, error) {
	switch s.Cfg.CatalogSource {
	case "postgres":
		if s.DB == nil {
			return nil, fmt.Errorf("catalog source postgres: no database connection")
		}
		return route.NewSchedule(route.NewService(s.DB), nil), nil
	case "backend":
		if s.Backend == nil {
			return nil, fmt.Errorf("catalog source backend: BACKEND_URL not set")
		}
		return route.NewSchedule(s.Backend, nil), nil
	default:
		defs, slots, err := route.LoadFile(s.Cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		return route.NewSchedule(defs, slots), nil
	}
}
