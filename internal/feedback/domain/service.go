package domain

import (
	"context"
	"errors"
)

type CreateComplaintRequest struct {
	ClientID    string
	MeterNumber string
	InvoiceID   string
	Type        string
	Subject     string
	Description string
}

type StartComplaintRequest struct {
	ComplaintID string
	Assignee    string
}

type ResolveComplaintRequest struct {
	ComplaintID string
	Response    string
	ResolvedBy  string
}

type ListComplaintRequest struct {
	ClientID string
	Status   string
}

type CreateReviewRequest struct {
	ClientID    string
	MeterNumber string
	Rating      int
	Comment     string
	Category    string
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Service interface {
	CreateComplaint(context.Context, CreateComplaintRequest) (Complaint, error)
	StartComplaint(context.Context, StartComplaintRequest) (Complaint, error)
	ResolveComplaint(context.Context, ResolveComplaintRequest) (Complaint, error)
	CloseComplaint(ctx context.Context, complaintID string) (Complaint, error)
	GetComplaint(ctx context.Context, complaintID string) (Complaint, error)
	ListComplaints(context.Context, ListComplaintRequest) ([]Complaint, error)

	CreateReview(context.Context, CreateReviewRequest) (Review, error)
	ListReviews(ctx context.Context, clientID string) ([]Review, error)
	AverageRating(context.Context) (RatingSummary, error)
}

var (
	ErrInvalidID                = errors.New("invalid_id")
	ErrInvalidComplaintType     = errors.New("invalid_complaint_type")
	ErrInvalidSubject           = errors.New("invalid_subject")
	ErrInvalidStatus            = errors.New("invalid_status")
	ErrInvalidAssignee          = errors.New("invalid_assignee")
	ErrInvalidResponse          = errors.New("invalid_response")
	ErrInvalidCategory          = errors.New("invalid_category")
	ErrComplaintNotFound        = errors.New("complaint_not_found")
	ErrComplaintAlreadyResolved = errors.New("complaint_already_resolved")
	ErrComplaintNotNew          = errors.New("complaint_not_new")
	ErrComplaintNotResolved     = errors.New("complaint_not_resolved")
	ErrRatingOutOfRange         = errors.New("rating out of range")
)
