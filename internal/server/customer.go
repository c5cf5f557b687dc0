package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type registerClientRequest struct {
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	Address          string          `json:"address"`
	Zone             string          `json:"zone"`
	SubscriptionType string          `json:"subscription_type"`
	MeterNumber      string          `json:"meter_number"`
	MeterType        string          `json:"meter_type"`
	Power            decimal.Decimal `json:"power"`
}

func (s *Server) RegisterClient(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.RegisterClient(c.Request.Context(), customerdomain.RegisterClientRequest{
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Zone:             req.Zone,
		SubscriptionType: req.SubscriptionType,
		MeterNumber:      req.MeterNumber,
		MeterType:        req.MeterType,
		Power:            req.Power,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListClients(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Zone             string `form:"zone"`
		SubscriptionType string `form:"subscription_type"`
		Active           string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.customerSvc.ListClients(c.Request.Context(), customerdomain.ListClientRequest{
		Zone:             strings.TrimSpace(query.Zone),
		SubscriptionType: strings.TrimSpace(query.SubscriptionType),
		Active:           active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetClient(c *gin.Context) {
	resp, err := s.customerSvc.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClientByMeterNumber(c *gin.Context) {
	resp, err := s.customerSvc.GetClientByMeterNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateClient(c *gin.Context) {
	resp, err := s.customerSvc.DeactivateClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMeters(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.customerSvc.ListMeters(c.Request.Context(), customerdomain.ListMeterRequest{Active: active})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetMeter(c *gin.Context) {
	resp, err := s.customerSvc.GetMeter(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListZones(c *gin.Context) {
	resp, err := s.customerSvc.ListZones(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
