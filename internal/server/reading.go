package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type createReadingRequest struct {
	MeterID       string          `json:"meter_id"`
	MeterNumber   string          `json:"meter_number"`
	AgentID       string          `json:"agent_id"`
	AgentName     string          `json:"agent_name"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	NewIndex      decimal.Decimal `json:"new_index"`
	ReadingDate   time.Time       `json:"reading_date"`
	Notes         string          `json:"notes"`
}

func (s *Server) CreateReading(c *gin.Context) {
	var req createReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.readingSvc.CreateReading(c.Request.Context(), readingdomain.CreateReadingRequest{
		MeterID:       req.MeterID,
		MeterNumber:   req.MeterNumber,
		AgentID:       agentID(c, req.AgentID),
		AgentName:     req.AgentName,
		PreviousIndex: req.PreviousIndex,
		NewIndex:      req.NewIndex,
		ReadingDate:   req.ReadingDate,
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReadings(c *gin.Context) {
	var query struct {
		pagination.Pagination
		MeterNumber string `form:"meter_number"`
		AgentID     string `form:"agent_id"`
		Status      string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.readingSvc.ListReadings(c.Request.Context(), readingdomain.ListReadingRequest{
		MeterNumber: strings.TrimSpace(query.MeterNumber),
		AgentID:     strings.TrimSpace(query.AgentID),
		Status:      strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetReading(c *gin.Context) {
	resp, err := s.readingSvc.GetReading(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateReading(c *gin.Context) {
	resp, err := s.readingSvc.ValidateReading(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectReading(c *gin.Context) {
	resp, err := s.readingSvc.RejectReading(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLastIndex(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	resp, err := s.readingSvc.LastIndex(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"meter_number": number, "last_index": resp}})
}
