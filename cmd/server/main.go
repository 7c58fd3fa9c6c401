package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/inkboard/backend/internal/api"
	"github.com/inkboard/backend/internal/config"
	"github.com/inkboard/backend/internal/logging"
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/scene"
	"github.com/inkboard/backend/internal/session"
	"github.com/inkboard/backend/internal/storage"
	"github.com/inkboard/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flags := pflag.NewFlagSet("inkboard", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to config.yaml (default: ./config/config.yaml or ./config.yaml)")
	flags.Int("server.port", 8089, "HTTP port")
	flags.String("logging.level", "info", "Log level")
	_ = flags.Parse(os.Args[1:])

	loader, err := config.NewLoader(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare configuration: %v\n", err)
		os.Exit(1)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := runServer(cfg, loader, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func runServer(cfg *config.AppConfig, loader *config.Loader, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewLocalStore(cfg.Storage.PresetsDirectory)
	if err != nil {
		return fmt.Errorf("initializing preset storage: %w", err)
	}

	scenes := scene.NewHolder(nil)
	scenePath := loader.ResolvePath(cfg.Scene.File)
	if err := scene.Reload(scenes, scenePath, store, log.Named("scene")); err != nil {
		log.Warn("No scene loaded, boards start empty", zap.String("file", scenePath), zap.Error(err))
	}
	if err := scene.Watch(ctx, scenes, scenePath, store, log.Named("scene")); err != nil {
		log.Warn("Scene hot reload disabled", zap.Error(err))
	}

	sessions := session.NewManager(session.Options{
		MaxSessions:   cfg.Session.MaxSessions,
		FrameInterval: time.Duration(cfg.Session.FrameIntervalMs) * time.Millisecond,
		Board: session.BoardDefaults{
			MobileBreakpoint:  cfg.Board.MobileBreakpointPx,
			LayoutAspectRatio: cfg.Board.LayoutAspectRatio,
			MinStrokeDistance: cfg.Board.MinStrokeDistancePx,
		},
	}, log)
	defer sessions.Shutdown()

	// edited scenes reach boards that are already open
	scenes.OnChange(func(sc *scene.Scene) {
		sessions.RefreshPresets(func(anchorID string) ([]models.PresetConfig, bool) {
			sec, ok := sc.Section(anchorID)
			if !ok {
				return nil, false
			}
			return sec.Presets, true
		})
	})

	go sessions.RunCleanup(ctx,
		time.Duration(cfg.Session.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Session.TimeoutMinutes)*time.Minute)

	// the scene file may move when the config changes
	loader.Watch(log, func(next *config.AppConfig) {
		path := loader.ResolvePath(next.Scene.File)
		if err := scene.Reload(scenes, path, store, log.Named("scene")); err != nil {
			log.Warn("Scene reload failed", zap.String("file", path), zap.Error(err))
		}
	})

	e := newEcho(cfg, log)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:             store,
		SessionMgr:        sessions,
		Scenes:            scenes,
		Log:               log,
		Version:           Version,
		AllowPresetWrites: cfg.Storage.AllowWrites,
	}))

	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn("Failed to register static routes", zap.Error(err))
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Info("Inkboard server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("listen", "http://"+cfg.GetServerAddr()),
		zap.String("config", loader.ConfigFile()),
		zap.String("presets", store.Dir()),
		zap.Bool("embedded_client", embeddedMode))

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.AppConfig, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, cfg.Server.Development, log)

	if cfg.Server.EnableRequestLogging {
		e.Use(api.RequestLogger(log.Named("http"), func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasPrefix(path, "/api/ws/")
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error("Recovered from panic",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))

	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/ws/")
			},
		}))
	}

	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	return e
}
