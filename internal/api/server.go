package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"farefeed/internal/client"
	"farefeed/internal/config"
	"farefeed/internal/engine"
	"farefeed/internal/feed"
	"farefeed/internal/query"
	"farefeed/internal/security"
	"farefeed/internal/stations"
	"farefeed/internal/storage"
	"farefeed/internal/web"

	"github.com/gin-gonic/gin"
)

const feedContentType = "application/feed+json"

type Server struct {
	router        *gin.Engine
	resolver      *stations.Resolver
	engine        *engine.Engine
	assembler     *feed.Assembler
	storage       storage.Storage
	cfg           *config.Config
	port          int
	swaggerServer *web.SwaggerServer
	now           func() time.Time
}

func NewServer(resolver *stations.Resolver, eng *engine.Engine, assembler *feed.Assembler, store storage.Storage, cfg *config.Config) *Server {
	router := gin.Default()

	// Setup security middleware
	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:        router,
		resolver:      resolver,
		engine:        eng,
		assembler:     assembler,
		storage:       store,
		cfg:           cfg,
		port:          cfg.Port,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
		now:           time.Now,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Feed endpoints, the surface feed readers poll
	s.router.GET("/", s.getJourneyFeed)
	s.router.GET("/journey", s.getJourneyFeed)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/journeys", s.getJourneys)
		api.GET("/history/:journey", s.getJourneyHistory)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: server shutdown failed: %v", err)
		}
		return ctx.Err()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fare-feed",
	})
}

// getJourneyFeed evaluates one fare inquiry and returns the assembled
// feed document. Validation failures return 400 with the collected
// error list; bot detection returns 503 so feed readers retry later.
func (s *Server) getJourneyFeed(c *gin.Context) {
	now := s.now()

	raw := query.RawParams{
		From:     paramOrDefault(c, "from", s.cfg.DefaultFrom),
		To:       paramOrDefault(c, "to", s.cfg.DefaultTo),
		Time:     paramOrDefault(c, "at", now.Format("1504")),
		Date:     paramOrDefault(c, "on", now.Format("20060102")),
		Schedule: c.Query("schedule"),
		Count:    c.Query("count"),
		Skip:     c.Query("skip"),
		Weeks:    paramOrDefault(c, "weeks", "0"),
		Seats:    c.Query("seats"),
	}

	q := query.New(c.Request.Context(), raw, now, s.resolver, s.cfg.QueryLimit)
	if !q.Status.OK() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Errors found: " + strings.Join(q.Status.Errors, ", "),
			"errors": q.Status.Errors,
		})
		return
	}

	quotes, err := s.engine.Evaluate(c.Request.Context(), q, now)
	if err != nil {
		if errors.Is(err, client.ErrBotDetected) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": q.Journey + " - bot detected, resetting session",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	// History is best-effort: a storage failure must not fail the feed
	if err := s.storage.SaveQuotes(q.Journey, quotes); err != nil {
		log.Printf("Warning: failed to save quotes for %s: %v", q.Journey, err)
	}

	document := s.assembler.Document(q, quotes, now)
	data, err := json.Marshal(document)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, feedContentType, data)
}

func (s *Server) getJourneys(c *gin.Context) {
	journeys, err := s.storage.ListJourneys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"journeys": journeys,
		"count":    len(journeys),
	})
}

func (s *Server) getJourneyHistory(c *gin.Context) {
	journey := strings.ToUpper(c.Param("journey"))

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.storage.LoadRecent(journey, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no history for journey " + journey,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"journey": journey,
		"records": records,
		"count":   len(records),
	})
}

func paramOrDefault(c *gin.Context, name, defaultVal string) string {
	if value := c.Query(name); value != "" {
		return value
	}
	return defaultVal
}
