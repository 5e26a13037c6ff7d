package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/scenario"
)

func (s *Server) sessionInitiatives(sessionID string) ([]scenario.Initiative, error) {
	records, err := s.db.ListInitiatives(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]scenario.Initiative, 0, len(records))
	for _, r := range records {
		out = append(out, r.Initiative())
	}
	return out, nil
}

// trackerKPIs validates a requested KPI subset; none means all.
func trackerKPIs(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return scenario.TrackedKPIs, nil
	}
	for _, k := range requested {
		if !slices.Contains(scenario.TrackedKPIs, k) {
			return nil, &scenario.ValidationError{Field: "kpis", Reason: "unknown kpi " + k}
		}
	}
	return requested, nil
}

func (s *Server) handleCreateSession(c *gin.Context) {
	session, records, err := s.db.CreateSession()
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"session_id": session.ID, "initiatives": len(records)}).Info("session created")
	c.JSON(http.StatusCreated, SessionResponse{
		SessionID:   session.ID,
		CreatedAt:   session.CreatedAt,
		Initiatives: fromInitiatives(records),
	})
}

func (s *Server) handleListInitiatives(c *gin.Context) {
	records, err := s.db.ListInitiatives(c.Param("id"))
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"initiatives": fromInitiatives(records)})
}

func (s *Server) handleAddInitiative(c *gin.Context) {
	var req CreateInitiativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	in, err := req.initiative()
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	record, err := s.db.AddInitiative(c.Param("id"), in)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, FromInitiative(*record))
}

func (s *Server) handleUpdateInitiative(c *gin.Context) {
	id, err := parseUintParam(c.Param("initiativeID"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	var req UpdateInitiativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if req.Complete == nil {
		s.renderError(c, http.StatusBadRequest, errors.New("complete is required"))
		return
	}
	record, err := s.db.SetInitiativeComplete(c.Param("id"), id, *req.Complete)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, FromInitiative(*record))
}

func (s *Server) handleKPISeries(c *gin.Context) {
	kpis, err := trackerKPIs(splitQuery(c.Query("kpis")))
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	sessionID := c.Param("id")
	initiatives, err := s.sessionInitiatives(sessionID)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	series, applied := scenario.ApplyInitiatives(scenario.BaselineSeries(), initiatives)
	if applied == nil {
		applied = []string{}
	}
	c.JSON(http.StatusOK, KPISeriesResponse{
		SessionID: sessionID,
		KPIs:      kpis,
		Series:    fromSeries(series, kpis),
		Applied:   applied,
	})
}

