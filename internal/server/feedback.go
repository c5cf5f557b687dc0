package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type createComplaintRequest struct {
	ClientID    string `json:"client_id"`
	MeterNumber string `json:"meter_number"`
	InvoiceID   string `json:"invoice_id"`
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type startComplaintRequest struct {
	Assignee string `json:"assignee"`
}

type resolveComplaintRequest struct {
	Response   string `json:"response"`
	ResolvedBy string `json:"resolved_by"`
}

type createReviewRequest struct {
	ClientID    string `json:"client_id"`
	MeterNumber string `json:"meter_number"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	Category    string `json:"category"`
}

func (s *Server) CreateComplaint(c *gin.Context) {
	var req createComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.CreateComplaint(c.Request.Context(), feedbackdomain.CreateComplaintRequest{
		ClientID:    req.ClientID,
		MeterNumber: req.MeterNumber,
		InvoiceID:   req.InvoiceID,
		Type:        req.Type,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) StartComplaint(c *gin.Context) {
	var req startComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.StartComplaint(c.Request.Context(), feedbackdomain.StartComplaintRequest{
		ComplaintID: c.Param("id"),
		Assignee:    agentID(c, req.Assignee),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveComplaint(c *gin.Context) {
	var req resolveComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.ResolveComplaint(c.Request.Context(), feedbackdomain.ResolveComplaintRequest{
		ComplaintID: c.Param("id"),
		Response:    req.Response,
		ResolvedBy:  agentID(c, req.ResolvedBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CloseComplaint(c *gin.Context) {
	resp, err := s.feedbackSvc.CloseComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetComplaint(c *gin.Context) {
	resp, err := s.feedbackSvc.GetComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListComplaints(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.ListComplaints(c.Request.Context(), feedbackdomain.ListComplaintRequest{
		ClientID: strings.TrimSpace(query.ClientID),
		Status:   strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.CreateReview(c.Request.Context(), feedbackdomain.CreateReviewRequest{
		ClientID:    req.ClientID,
		MeterNumber: req.MeterNumber,
		Rating:      req.Rating,
		Comment:     req.Comment,
		Category:    req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReviews(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.ListReviews(c.Request.Context(), strings.TrimSpace(query.ClientID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondPage(c, resp, query.Pagination)
}

func (s *Server) GetAverageRating(c *gin.Context) {
	resp, err := s.feedbackSvc.AverageRating(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
