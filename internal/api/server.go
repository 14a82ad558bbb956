package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// Server is the HTTP surface of the raffle program: instruction submission, record
// reads and the metrics endpoint.
type Server struct {
	processor *processor.Processor
	engine    *gin.Engine
	http      *http.Server
}

func NewServer(p *processor.Processor, addr string) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog())

	s := &Server{
		processor: p,
		engine:    engine,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.RegisterRoutes(engine)
	return s
}

// RegisterRoutes registers all the application routes.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	raffles := router.Group("/raffles")
	raffles.POST("", s.OpenRaffle)
	raffles.GET("/:address", s.GetRaffle)
	raffles.POST("/:address/tickets", s.BuyTickets)
	raffles.POST("/:address/draw", s.RequestDraw)
	raffles.POST("/:address/claim", s.ClaimPrize)
	raffles.POST("/:address/close", s.CloseRaffle)
	raffles.GET("/:address/notifications", s.ListNotifications)

	accounts := router.Group("/accounts")
	accounts.GET("/:address", s.GetAccount)
	accounts.POST("/:address/airdrop", s.Airdrop)

	router.GET("/oracle", s.GetOracle)
	router.POST("/oracle/verify", s.VerifyRandomness)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	logger.Info("http server starting", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"slot":      s.processor.Ledger().Slot(),
	})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("request id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(started)),
		)
	}
}
