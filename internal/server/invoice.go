package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type generateInvoiceRequest struct {
	ReadingID string `json:"reading_id"`
	Period    string `json:"period"`
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.GenerateInvoice(c.Request.Context(), invoicedomain.GenerateInvoiceRequest{
		ReadingID: req.ReadingID,
		Period:    req.Period,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.CancelInvoice(c.Request.Context(), invoicedomain.CancelInvoiceRequest{
		InvoiceID: c.Param("id"),
		Reason:    req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID    string `form:"client_id"`
		MeterNumber string `form:"meter_number"`
		Status      string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.ListInvoices(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		ClientID:    strings.TrimSpace(query.ClientID),
		MeterNumber: strings.TrimSpace(query.MeterNumber),
		Status:      strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByNumber(c *gin.Context) {
	resp, err := s.invoiceSvc.GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := s.invoiceSvc.RenderInvoicePDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=invoice-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", doc)
}
