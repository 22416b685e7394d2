// Package restserver exposes the HTTP surface: the packet query API,
// the realtime subscription hub, health, and metrics.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aprswatch/aprswatch/internal/fanout"
	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/storage"
	"github.com/aprswatch/aprswatch/pkg/config"
)

// Defaults for rate limiting when the config leaves them unset.
const (
	defaultRateLimitRPS   = 10
	defaultRateLimitBurst = 20
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	store      storage.PacketStore
	hub        *fanout.Hub
	health     *storage.HealthManager
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, store storage.PacketStore, hub *fanout.Hub, logger *zap.SugaredLogger) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("REST server requires a packet store")
	}
	if hub == nil {
		return nil, fmt.Errorf("REST server requires a fan-out hub")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		store:      store,
		hub:        hub,
		health:     storage.GlobalHealthManager,
		logger:     logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	if rc.RateLimitRPS <= 0 {
		rc.RateLimitRPS = defaultRateLimitRPS
	}
	if rc.RateLimitBurst <= 0 {
		rc.RateLimitBurst = defaultRateLimitBurst
	}
	if rc.CORSOrigin == "" {
		rc.CORSOrigin = "*"
	}
	ctrl.restConfig = rc
	ctrl.limiter = rate.NewLimiter(rate.Limit(rc.RateLimitRPS), rc.RateLimitBurst)

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.loggingMiddleware)
	router.Use(c.corsMiddleware)

	// Query API endpoints sit behind the rate limiter; health, metrics
	// and the realtime hub do not. OPTIONS is matched so the CORS
	// middleware sees preflight requests.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(c.rateLimitMiddleware)
	api.HandleFunc("/packets", c.handlers.GetPackets).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/packets/{id:[0-9]+}", c.handlers.GetPacketByID).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/hubs/packets", c.handlers.ServeHub)
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/debug/requests", c.handlers.GetRequestLog).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}
