package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultActivityLimit = 15

func (s *Server) GetBillingSummary(c *gin.Context) {
	resp, err := s.billingDashboardSvc.BillingSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAgentActivity(c *gin.Context) {
	resp, err := s.billingDashboardSvc.AgentActivity(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListClientBalances(c *gin.Context) {
	resp, err := s.billingDashboardSvc.ListClientBalances(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPeriods(c *gin.Context) {
	resp, err := s.billingDashboardSvc.ListPeriods(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillingActivity(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"), defaultActivityLimit)
	if err != nil || limit <= 0 {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	resp, err := s.billingDashboardSvc.ListBillingActivity(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
