// internal/app/server.go
package app

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"rtx-client/internal/config"
	"rtx-client/internal/domain/geo"
	"rtx-client/internal/maps"
	"rtx-client/internal/middleware"
	"rtx-client/internal/service/auth"
	restaurantsvc "rtx-client/internal/service/restaurant"
	"rtx-client/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// CitySearcher resolves a city name to a coordinate, nil when unknown.
type CitySearcher interface {
	GeocodeCity(ctx context.Context, query string) *geo.Point
}

// Server is the local map viewer: a loopback HTTP server that renders the
// Leaflet page and relays map snapshots over a websocket.
type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	auth        *auth.AuthService
	restaurants *restaurantsvc.Service
	sync        *maps.Synchronizer
	cities      CitySearcher
	hub         *websocket.Hub
	httpServer  *http.Server
}

func NewServer(cfg config.AppConfig, logger *zap.Logger, authService *auth.AuthService, restaurants *restaurantsvc.Service, sync *maps.Synchronizer, cities CitySearcher) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:         cfg,
		engine:      engine,
		logger:      logger,
		auth:        authService,
		restaurants: restaurants,
		sync:        sync,
		cities:      cities,
		hub:         websocket.NewHub(logger),
	}
	SetupRouter(engine, logger, s)
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully. The hub
// and the snapshot relay run for the lifetime of the call.
func (s *Server) Start(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go s.hub.Run(hubCtx)

	snapshots, unsubscribe := s.sync.Subscribe()
	defer unsubscribe()
	go func() {
		for snap := range snapshots {
			s.hub.PushSnapshot(snap)
		}
	}()

	// Warm the map before the first page load; failures surface as the
	// fallback advisory, not as a startup error.
	warmCtx, cancelWarm := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	if _, err := s.sync.Refresh(warmCtx); err != nil {
		s.logger.Warn("initial map refresh failed", zap.Error(err))
	}
	cancelWarm()

	s.httpServer = &http.Server{
		Addr:    s.cfg.ViewerAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("map viewer listening", zap.String("addr", s.cfg.ViewerAddr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	s.logger.Info("map viewer stopped")
	return nil
}

// guard builds the session guard middleware around the auth service.
func (s *Server) guard() gin.HandlerFunc {
	return middleware.SessionGuard(s.auth)
}
