package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/ai"
	"pe-scenario-lab/backend/internal/narrative"
	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/util"
)

func parsePersona(name string) (narrative.Persona, error) {
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}
	return narrative.ParsePersona(name)
}

// narrate sends a composed prompt to the generator and renders the text as-is.
func (s *Server) narrate(c *gin.Context, build func(narrative.Persona) (narrative.Request, error), personaName string) {
	persona, err := parsePersona(personaName)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	req, err := build(persona)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	if !s.generator.Enabled() {
		s.renderError(c, http.StatusServiceUnavailable, ai.ErrDisabled)
		return
	}

	timer := util.StartTimer()
	ctx, cancel := context.WithTimeout(c.Request.Context(), narrativeTimeout)
	defer cancel()
	text, err := s.generator.Generate(ctx, req.System, req.Prompt)
	fields := timer.Fields(logrus.Fields{"tool": req.Tool, "persona": req.Persona.String()})
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("narrative generation failed")
		status := http.StatusBadGateway
		if errors.Is(err, ai.ErrDisabled) {
			status = http.StatusServiceUnavailable
		}
		s.renderError(c, status, err)
		return
	}
	logrus.WithFields(fields).Info("narrative generated")

	c.JSON(http.StatusOK, NarrativeResponse{
		Tool:      req.Tool,
		Persona:   req.Persona.String(),
		Narrative: text,
		ElapsedMs: timer.ElapsedMs(),
	})
}

func (s *Server) handleDealNarrative(c *gin.Context) {
	var req DealNarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.Deal(req.Summary, p)
	}, req.Persona)
}

func (s *Server) handleValuationNarrative(c *gin.Context) {
	var req ValuationNarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.Valuation(req.Summary, p)
	}, req.Persona)
}

func (s *Server) handleAssociateNarrative(c *gin.Context) {
	var req AssociateNarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.AssociatePack(req.Summary, p)
	}, req.Persona)
}

func (s *Server) handleOperatingNarrative(c *gin.Context) {
	var req OperatingNarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.Operating(req.Projection, req.Simulation, p)
	}, req.Persona)
}

func (s *Server) handleCxONarrative(c *gin.Context) {
	var req CxONarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.CxO(req.Projection, p)
	}, req.Persona)
}

func (s *Server) handleManagementNarrative(c *gin.Context) {
	var req ManagementNarrativeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	initiatives, err := s.sessionInitiatives(req.SessionID)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	summary, err := scenario.SummarizeTracker(initiatives, req.KPIs)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.narrate(c, func(p narrative.Persona) (narrative.Request, error) {
		return narrative.Management(summary, p)
	}, req.Persona)
}
