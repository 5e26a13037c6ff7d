package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/store"
	"pe-scenario-lab/backend/internal/util"
)

func (s *Server) runDeal(req DealRequest) (*scenario.DealResult, error) {
	params, err := req.resolve()
	if err != nil {
		return nil, err
	}
	return scenario.RunDeal(params, runsOrDefault(req.Runs), montecarlo.NewSource(req.Seed))
}

func (s *Server) runValuation(req ValuationRequest) (*scenario.ValuationResult, error) {
	params, err := req.resolve()
	if err != nil {
		return nil, err
	}
	return scenario.RunValuation(params, runsOrDefault(req.Runs), montecarlo.NewSource(req.Seed))
}

func (s *Server) runAssociate(req AssociateRequest) (*scenario.AssociateResult, error) {
	comps, err := s.refdata.Comps(store.DatasetAssociate)
	if err != nil {
		return nil, err
	}
	financials, err := s.refdata.Financials()
	if err != nil {
		return nil, err
	}
	return scenario.RunAssociate(financials, comps, req.resolve(comps), runsOrDefault(req.Runs), montecarlo.NewSource(req.Seed))
}

func (s *Server) runOperating(req OperatingRequest) (*scenario.OperatingResult, error) {
	kpi := firstNonEmpty(req.KPI, scenario.KPIRevenue)
	return scenario.RunOperating(req.levers(), kpi, runsOrDefault(req.Runs), montecarlo.NewSource(req.Seed))
}

// recordBatch logs a finished batch and pushes it to stream subscribers.
func (s *Server) recordBatch(tool scenario.Tool, batch *montecarlo.Batch[scenario.Rule], timer util.Timer) {
	logrus.WithFields(timer.Fields(logrus.Fields{
		"tool":      tool,
		"requested": batch.Requested,
		"retained":  batch.Retained(),
		"rules":     batch.Fired.Len(),
	})).Info("simulation complete")
	s.notifier.Broadcast(newSimulationEvent(tool, batch, timer.ElapsedMs()))
}

func (s *Server) handleDealSimulate(c *gin.Context) {
	var req DealRequest
	if !s.bindJSON(c, &req) {
		return
	}
	timer := util.StartTimer()
	result, err := s.runDeal(req)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.recordBatch(scenario.ToolDeal, result.Batch, timer)
	c.JSON(http.StatusOK, SimulationResponse[scenario.DealSummary]{
		Tool:      scenario.ToolDeal,
		Summary:   result.Summary,
		ElapsedMs: timer.ElapsedMs(),
	})
}

func (s *Server) handleValuationComps(c *gin.Context) {
	comps, err := s.refdata.Comps(store.DatasetValuation)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comps": comps})
}

func (s *Server) handleValuationSimulate(c *gin.Context) {
	var req ValuationRequest
	if !s.bindJSON(c, &req) {
		return
	}
	timer := util.StartTimer()
	result, err := s.runValuation(req)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.recordBatch(scenario.ToolValuation, result.Batch, timer)
	c.JSON(http.StatusOK, SimulationResponse[scenario.ValuationSummary]{
		Tool:      scenario.ToolValuation,
		Summary:   result.Summary,
		ElapsedMs: timer.ElapsedMs(),
	})
}

func (s *Server) handleAssociatePack(c *gin.Context) {
	comps, err := s.refdata.Comps(store.DatasetAssociate)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	financials, err := s.refdata.Financials()
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	req := AssociateRequest{Comps: splitQuery(c.Query("comps"))}
	params := req.resolve(comps)
	if err := params.Validate(comps); err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario.BuildPack(financials, comps, params))
}

func (s *Server) handleAssociateSimulate(c *gin.Context) {
	var req AssociateRequest
	if !s.bindJSON(c, &req) {
		return
	}
	timer := util.StartTimer()
	result, err := s.runAssociate(req)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.recordBatch(scenario.ToolAssociate, result.Batch, timer)
	c.JSON(http.StatusOK, gin.H{
		"tool":       scenario.ToolAssociate,
		"pack":       result.Pack,
		"summary":    result.Summary,
		"elapsed_ms": timer.ElapsedMs(),
	})
}

func (s *Server) handleOperatingProject(c *gin.Context) {
	var req OperatingRequest
	if !s.bindJSON(c, &req) {
		return
	}
	proj, err := scenario.ProjectOperating(req.levers())
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, proj)
}

func (s *Server) handleOperatingSimulate(c *gin.Context) {
	var req OperatingRequest
	if !s.bindJSON(c, &req) {
		return
	}
	timer := util.StartTimer()
	result, err := s.runOperating(req)
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.recordBatch(scenario.ToolOperating, result.Batch, timer)
	c.JSON(http.StatusOK, SimulationResponse[scenario.OperatingSummary]{
		Tool:      scenario.ToolOperating,
		Summary:   result.Summary,
		ElapsedMs: timer.ElapsedMs(),
	})
}

func (s *Server) handleCxOProject(c *gin.Context) {
	var req CxORequest
	if !s.bindJSON(c, &req) {
		return
	}
	proj, err := scenario.ProjectCxO(req.params())
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, proj)
}
