package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/export"
	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/util"
)

// writeCSV buffers the table so an encoding error can still become a JSON error.
func (s *Server) writeCSV(c *gin.Context, filename string, table export.Table) {
	var buf bytes.Buffer
	if err := export.Write(&buf, table); err != nil {
		s.renderFailure(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// handleSimulationExport reruns a simulation from the posted request and
// returns every retained run. A seed makes the file match an earlier response.
func (s *Server) handleSimulationExport(c *gin.Context) {
	tool, err := scenario.ParseTool(c.Param("tool"))
	if err != nil {
		s.renderError(c, http.StatusNotFound, err)
		return
	}

	timer := util.StartTimer()
	var batch *montecarlo.Batch[scenario.Rule]
	switch tool {
	case scenario.ToolDeal:
		var req DealRequest
		if !s.bindJSON(c, &req) {
			return
		}
		var result *scenario.DealResult
		if result, err = s.runDeal(req); err == nil {
			batch = result.Batch
		}
	case scenario.ToolValuation:
		var req ValuationRequest
		if !s.bindJSON(c, &req) {
			return
		}
		var result *scenario.ValuationResult
		if result, err = s.runValuation(req); err == nil {
			batch = result.Batch
		}
	case scenario.ToolAssociate:
		var req AssociateRequest
		if !s.bindJSON(c, &req) {
			return
		}
		var result *scenario.AssociateResult
		if result, err = s.runAssociate(req); err == nil {
			batch = result.Batch
		}
	case scenario.ToolOperating:
		var req OperatingRequest
		if !s.bindJSON(c, &req) {
			return
		}
		var result *scenario.OperatingResult
		if result, err = s.runOperating(req); err == nil {
			batch = result.Batch
		}
	default:
		s.renderError(c, http.StatusNotFound, fmt.Errorf("%s has no simulation runs to export", tool))
		return
	}
	if err != nil {
		s.renderFailure(c, err)
		return
	}

	logrus.WithFields(timer.Fields(logrus.Fields{"tool": tool, "runs": batch.Retained()})).Info("simulation exported")
	s.writeCSV(c, fmt.Sprintf("%s-runs.csv", tool), export.Runs(batch))
}

func (s *Server) handleAssociateExport(c *gin.Context) {
	financials, err := s.refdata.Financials()
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	clean, _ := scenario.CleanFinancials(financials)
	s.writeCSV(c, "cleaned_financials.csv", export.Financials(clean))
}

func (s *Server) handleOperatingExport(c *gin.Context) {
	var req OperatingRequest
	if !s.bindJSON(c, &req) {
		return
	}
	proj, err := scenario.ProjectOperating(req.levers())
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.writeCSV(c, "op_kpi_dashboard.csv", export.KPIs(proj.Rows))
}

func (s *Server) handleCxOExport(c *gin.Context) {
	var req CxORequest
	if !s.bindJSON(c, &req) {
		return
	}
	proj, err := scenario.ProjectCxO(req.params())
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	s.writeCSV(c, "cxo_kpi_dashboard.csv", export.KPIs(proj.KPIs))
}

func (s *Server) handleManagementExport(c *gin.Context) {
	kpis, err := trackerKPIs(splitQuery(c.Query("kpis")))
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	initiatives, err := s.sessionInitiatives(c.Query("session_id"))
	if err != nil {
		s.renderFailure(c, err)
		return
	}
	series, applied := scenario.ApplyInitiatives(scenario.BaselineSeries(), initiatives)
	s.writeCSV(c, "management_kpis.csv", export.Series(series, kpis, applied))
}

