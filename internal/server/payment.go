package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/snelcrm/internal/payment/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type applyPaymentRequest struct {
	InvoiceID            string          `json:"invoice_id"`
	Amount               decimal.Decimal `json:"amount"`
	PaymentMode          string          `json:"payment_mode"`
	Channel              string          `json:"channel"`
	AgentID              string          `json:"agent_id"`
	TransactionReference string          `json:"transaction_reference"`
}

func (s *Server) ApplyPayment(c *gin.Context) {
	var req applyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ApplyPayment(c.Request.Context(), paymentdomain.ApplyPaymentRequest{
		InvoiceID:            req.InvoiceID,
		Amount:               req.Amount,
		PaymentMode:          req.PaymentMode,
		Channel:              req.Channel,
		AgentID:              agentID(c, req.AgentID),
		TransactionReference: req.TransactionReference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		InvoiceID string `form:"invoice_id"`
		ClientID  string `form:"client_id"`
		AgentID   string `form:"agent_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ListPayments(c.Request.Context(), paymentdomain.ListPaymentRequest{
		InvoiceID: strings.TrimSpace(query.InvoiceID),
		ClientID:  strings.TrimSpace(query.ClientID),
		AgentID:   strings.TrimSpace(query.AgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetPayment(c *gin.Context) {
	resp, err := s.paymentSvc.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := s.paymentSvc.RenderReceiptPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", doc)
}
