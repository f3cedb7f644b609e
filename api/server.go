// Package api exposes the HTTP surface: depth and simulation endpoints,
// the WebSocket delta stream, health and metrics.
package api

import (
	"reflect"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/coinwatch/bookfeed/internal/marketdata"
	"github.com/coinwatch/bookfeed/internal/orderbook"
)

// Server is the API server.
type Server struct {
	router     *gin.Engine
	logger     *zap.Logger
	store      *orderbook.Store
	simulator  *marketdata.Simulator
	hub        *marketdata.Hub
	topK       int
	staleAfter time.Duration
	validate   *validator.Validate
}

// NewServer wires the router with the injected collaborators. staleAfter is
// how old the current snapshot may get before health reports degraded.
func NewServer(
	logger *zap.Logger,
	store *orderbook.Store,
	simulator *marketdata.Simulator,
	hub *marketdata.Hub,
	topK int,
	staleAfter time.Duration,
) *Server {
	server := &Server{
		logger:     logger,
		store:      store,
		simulator:  simulator,
		hub:        hub,
		topK:       topK,
		staleAfter: staleAfter,
	}

	// Validator needs to see decimals as numbers for gt/oneof style tags.
	validate := validator.New()
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	server.validate = validate

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware("bookfeed-api"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start runs the HTTP server on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := s.router.Group("/api/v1")
	{
		public.GET("/health", s.healthCheck)

		market := public.Group("/market")
		{
			market.GET("/depth", s.getDepth)
			market.POST("/order/simulate", s.simulateOrder)
		}

		public.GET("/ws/marketdata", func(c *gin.Context) {
			s.hub.ServeWS(c.Writer, c.Request)
		})
	}
}
