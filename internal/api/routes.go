package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/ai"
	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/narrative"
	"pe-scenario-lab/backend/internal/refdata"
	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	CompsCSVPath   string
	AllowedOrigins []string
	SilentDB       bool
	AIConfig       ai.Config
	GeminiConfig   ai.GeminiConfig
	DisableAI      bool
	// Generator overrides the configured providers when set.
	Generator ai.Generator
}

// Server wires HTTP handlers with persistence, reference data and narrative generation.
type Server struct {
	db             *store.Database
	refdata        *refdata.Service
	allowedOrigins []string
	generator      ai.Generator
	notifier       *SimulationNotifier
}

const narrativeTimeout = 90 * time.Second

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	server := &Server{
		db:             db,
		refdata:        refdata.NewService(db),
		allowedOrigins: cfg.AllowedOrigins,
		generator:      generator,
		notifier:       NewSimulationNotifier(),
	}

	if trimmed := strings.TrimSpace(cfg.CompsCSVPath); trimmed != "" {
		if count, err := server.refdata.LoadFromCSV(trimmed); err != nil {
			logrus.WithError(err).Warn("load comps csv")
		} else {
			logrus.WithFields(logrus.Fields{"path": trimmed, "rows": count}).Info("loaded comps csv")
		}
	}

	return server, nil
}

func buildGenerator(cfg Config) (ai.Generator, error) {
	if cfg.Generator != nil {
		return cfg.Generator, nil
	}
	if cfg.DisableAI {
		logrus.Info("AI narratives disabled via configuration")
		return ai.Disabled{}, nil
	}

	var primary, fallback ai.Generator
	if client, err := ai.NewClient(cfg.AIConfig); err == nil {
		primary = client
		logrus.WithField("model", client.Model()).Info("OpenAI narratives enabled")
	} else if !errors.Is(err, ai.ErrDisabled) {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	if strings.TrimSpace(cfg.GeminiConfig.APIKey) != "" {
		client, err := ai.NewGemini(context.Background(), cfg.GeminiConfig)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		fallback = client
		logrus.WithField("model", client.Model()).Info("Gemini narratives enabled")
	}
	if primary == nil && fallback == nil {
		logrus.Warn("no AI credentials configured; narrative endpoints will return 503")
		return ai.Disabled{}, nil
	}
	return ai.WithFallback(primary, fallback), nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/tools", s.handleTools)
		api.GET("/stream", s.handleStream)

		api.POST("/deal/simulate", s.handleDealSimulate)
		api.POST("/deal/narrative", s.handleDealNarrative)

		api.GET("/valuation/comps", s.handleValuationComps)
		api.POST("/valuation/simulate", s.handleValuationSimulate)
		api.POST("/valuation/narrative", s.handleValuationNarrative)

		api.GET("/associate/pack", s.handleAssociatePack)
		api.GET("/associate/export.csv", s.handleAssociateExport)
		api.POST("/associate/simulate", s.handleAssociateSimulate)
		api.POST("/associate/narrative", s.handleAssociateNarrative)

		api.POST("/operating/project", s.handleOperatingProject)
		api.POST("/operating/simulate", s.handleOperatingSimulate)
		api.POST("/operating/export.csv", s.handleOperatingExport)
		api.POST("/operating/narrative", s.handleOperatingNarrative)

		api.POST("/cxo/project", s.handleCxOProject)
		api.POST("/cxo/export.csv", s.handleCxOExport)
		api.POST("/cxo/narrative", s.handleCxONarrative)

		api.POST("/management/narrative", s.handleManagementNarrative)
		api.GET("/management/export.csv", s.handleManagementExport)

		api.POST("/simulations/:tool/export.csv", s.handleSimulationExport)

		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions/:id/initiatives", s.handleListInitiatives)
		api.POST("/sessions/:id/initiatives", s.handleAddInitiative)
		api.PATCH("/sessions/:id/initiatives/:initiativeID", s.handleUpdateInitiative)
		api.GET("/sessions/:id/kpis", s.handleKPISeries)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	valuationComps, err := s.db.CountComps(store.DatasetValuation)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	associateComps, err := s.db.CountComps(store.DatasetAssociate)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ai_enabled":           s.generator.Enabled(),
		"tools":                scenario.Tools,
		"default_runs":         defaultRuns,
		"valuation_comps":      valuationComps,
		"associate_comps":      associateComps,
		"cxo_total_budget":     scenario.CxOTotalBudget,
		"tracked_kpis":         scenario.TrackedKPIs,
		"allowed_origins":      s.allowedOrigins,
		"operating_kpis":       []string{scenario.KPIRevenue, scenario.KPIEBITDA, scenario.KPIChurn, scenario.KPINPS, scenario.KPICashConversion},
		"tracker_start":        scenario.TrackerStart.Format(scenario.DateLayout),
		"stream_subscriptions": s.notifier.Count(),
	})
}

func (s *Server) handleTools(c *gin.Context) {
	tools := make([]ToolDTO, 0, len(scenario.Tools))
	for _, tool := range scenario.Tools {
		dto := ToolDTO{Tool: tool}
		for _, p := range narrative.Personas(tool) {
			dto.Personas = append(dto.Personas, p.String())
		}
		switch tool {
		case scenario.ToolDeal:
			dto.MonteCarlo, dto.Runs, dto.Presets = true, &scenario.DealRunBounds, scenario.DealPresetNames
		case scenario.ToolValuation:
			dto.MonteCarlo, dto.Runs, dto.Presets = true, &scenario.ValuationRunBounds, scenario.ValuationPresetNames
		case scenario.ToolAssociate:
			dto.MonteCarlo, dto.Runs = true, &scenario.AssociateRunBounds
		case scenario.ToolOperating:
			dto.MonteCarlo, dto.Runs = true, &scenario.OperatingRunBounds
		}
		tools = append(tools, dto)
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("simulation websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("simulation websocket closed")
			} else {
				logrus.WithError(err).Warn("simulation websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// renderFailure maps domain errors onto status codes.
func (s *Server) renderFailure(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case scenario.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, montecarlo.ErrNoValidRuns):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case ai.Unavailable(err):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	s.renderError(c, status, err)
}

// bindJSON decodes an optional body; an empty body leaves dst untouched.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func parseUintParam(value string) (uint, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("identifier is required")
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %w", err)
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be greater than zero")
	}
	return uint(parsed), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitQuery(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
