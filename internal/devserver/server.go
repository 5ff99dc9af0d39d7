// Package devserver is an in-memory stand-in for the clinic backend.
//
// It serves the same REST routes as the real service, seeded with a small
// clinic, plus an admin endpoint that injects failures so the client's retry
// and fallback paths can be exercised by hand and in tests.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds server settings.
type Config struct {
	Addr string
	// Token is the bearer token issued on login. Empty means a random one.
	Token string
	Seed  bool
}

// Server provides the stub backend over HTTP.
type Server struct {
	cfg    Config
	engine *gin.Engine
	server *http.Server
	data   *data
	faults *faults
	logger *slog.Logger
	now    func() time.Time
	token  string
}

// New creates a server. It does not listen until Start.
func New(cfg Config, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = slog.Default()
	}
	token := cfg.Token
	if token == "" {
		token = uuid.NewString()
	}

	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
		data:   newData(),
		faults: newFaults(),
		logger: logger,
		now:    time.Now,
		token:  token,
	}
	if cfg.Seed {
		s.data.seed(s.now())
	}

	s.engine.Use(s.requestLogger(), gin.Recovery())
	s.routes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Token returns the bearer token issued on login.
func (s *Server) Token() string {
	return s.token
}

// InjectFault registers a fault directly, bypassing HTTP.
func (s *Server) InjectFault(f Fault) {
	s.faults.set(f)
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Dev server listening", "addr", s.cfg.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/_admin")
	admin.POST("/faults", s.handleSetFault)
	admin.DELETE("/faults", s.handleClearFaults)

	api := r.Group("/", s.faults.middleware())
	api.POST("/users/login", s.handleLogin)

	authed := api.Group("/", s.requireToken())
	authed.GET("/users", s.handleUsers)

	authed.GET("/propietarios", s.handleListOwners)
	authed.POST("/propietarios", s.handleCreateOwner)
	authed.GET("/propietarios/:id/detalle", s.handleOwnerDetail)
	authed.PUT("/propietarios/:id", s.handleUpdateOwner)
	authed.DELETE("/propietarios/:id", s.handleDeleteOwner)

	authed.GET("/mascotas", s.handleListPets)
	authed.POST("/mascotas", s.handleCreatePet)
	authed.POST("/mascotas/:id/foto", s.handleUploadPhoto)

	authed.GET("/historiales", s.handleListRecords)
	authed.GET("/historiales/:id", s.handleRecordsByPet)
	authed.POST("/historiales", s.handleCreateRecord)
	authed.PATCH("/historiales/:id", s.handleUpdateRecord)
	authed.DELETE("/historiales/:id", s.handleDeleteRecord)

	authed.GET("/veterinarios/:id", s.handleGetVet)

	reports := authed.Group("/reportes")
	reports.GET("/total-pacientes", s.handleTotalPatients)
	reports.GET("/consultas-este-mes", s.handleConsultationsThisMonth)
	reports.GET("/vacunas-aplicadas", s.handleVaccinesApplied)
	reports.GET("/actividad-mensual", s.handleMonthlyActivity)
	reports.GET("/distribucion-especies", s.handleSpeciesDistribution)
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token != s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token invalido o ausente"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetHeader("X-Request-ID"),
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			s.logger.Warn("Request failed", attrs...)
		} else {
			s.logger.Debug("Request served", attrs...)
		}
	}
}

type faultRequest struct {
	Path   string `json:"path" binding:"required"`
	Status int    `json:"status"`
	Delay  string `json:"delay"`
	Count  int    `json:"count"`
}

func (s *Server) handleSetFault(c *gin.Context) {
	var req faultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	var delay time.Duration
	if req.Delay != "" {
		d, err := time.ParseDuration(req.Delay)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid delay"})
			return
		}
		delay = d
	}
	s.faults.set(Fault{Path: req.Path, Status: req.Status, Delay: delay, Count: req.Count})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearFaults(c *gin.Context) {
	s.faults.clear()
	c.Status(http.StatusNoContent)
}
