package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ticketingdomain "github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type createOperatorRequest struct {
	Name          string `json:"name"`
	Prefix        string `json:"prefix"`
	TransportType string `json:"transport_type"`
}

type createLineRequest struct {
	OperatorID             string          `json:"operator_id"`
	Origin                 string          `json:"origin"`
	Destination            string          `json:"destination"`
	Price                  decimal.Decimal `json:"price"`
	AverageDurationMinutes int             `json:"average_duration_minutes"`
}

type createDepartureRequest struct {
	LineID        string    `json:"line_id"`
	DepartureTime time.Time `json:"departure_time"`
	TotalSeats    int       `json:"total_seats"`
}

type createTicketsRequest struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	DepartureID string `json:"departure_id"`
	SeatCount   int    `json:"seat_count"`
	Channel     string `json:"channel"`
	PaymentMode string `json:"payment_mode"`
	AgentID     string `json:"agent_id"`
}

func (s *Server) CreateOperator(c *gin.Context) {
	var req createOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketingSvc.CreateOperator(c.Request.Context(), ticketingdomain.CreateOperatorRequest{
		Name:          req.Name,
		Prefix:        req.Prefix,
		TransportType: req.TransportType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOperators(c *gin.Context) {
	resp, err := s.ticketingSvc.ListOperators(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateLine(c *gin.Context) {
	var req createLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketingSvc.CreateLine(c.Request.Context(), ticketingdomain.CreateLineRequest{
		OperatorID:             req.OperatorID,
		Origin:                 req.Origin,
		Destination:            req.Destination,
		Price:                  req.Price,
		AverageDurationMinutes: req.AverageDurationMinutes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListLines(c *gin.Context) {
	resp, err := s.ticketingSvc.ListLines(c.Request.Context(), strings.TrimSpace(c.Query("operator_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDeparture(c *gin.Context) {
	var req createDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketingSvc.CreateDeparture(c.Request.Context(), ticketingdomain.CreateDepartureRequest{
		LineID:        req.LineID,
		DepartureTime: req.DepartureTime,
		TotalSeats:    req.TotalSeats,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListDepartures(c *gin.Context) {
	resp, err := s.ticketingSvc.ListDepartures(c.Request.Context(), strings.TrimSpace(c.Query("line_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeparture(c *gin.Context) {
	resp, err := s.ticketingSvc.GetDeparture(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelDeparture(c *gin.Context) {
	resp, err := s.ticketingSvc.CancelDeparture(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTickets(c *gin.Context) {
	var req createTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketingSvc.CreateTicket(c.Request.Context(), ticketingdomain.CreateTicketRequest{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		DepartureID: req.DepartureID,
		SeatCount:   req.SeatCount,
		Channel:     req.Channel,
		PaymentMode: req.PaymentMode,
		AgentID:     agentID(c, req.AgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTickets(c *gin.Context) {
	var query struct {
		pagination.Pagination
		DepartureID string `form:"departure_id"`
		Status      string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketingSvc.ListTickets(c.Request.Context(), ticketingdomain.ListTicketRequest{
		DepartureID: strings.TrimSpace(query.DepartureID),
		Status:      strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetTicket(c *gin.Context) {
	resp, err := s.ticketingSvc.GetTicket(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateTicket(c *gin.Context) {
	resp, err := s.ticketingSvc.ValidateTicket(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelTicket(c *gin.Context) {
	resp, err := s.ticketingSvc.CancelTicket(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTicketingSummary(c *gin.Context) {
	resp, err := s.ticketingSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
