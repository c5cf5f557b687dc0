package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/snelcrm/internal/authorization"
	billingdashboarddomain "github.com/smallbiznis/snelcrm/internal/billingdashboard/domain"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/snelcrm/internal/payment/domain"
	"github.com/smallbiznis/snelcrm/internal/ratelimit"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	ticketingdomain "github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	"github.com/smallbiznis/snelcrm/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		var limited *ratelimit.LimitedError
		if errors.As(lastErr.Err, &limited) {
			seconds := int(limited.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(err),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog gives the request log a stable type and code.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status == http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, errorCode(err)
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	return errorIn(err, validationErrors)
}

func isConflictError(err error) bool {
	return errors.Is(err, ErrConflict) || errorIn(err, conflictErrors)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errorIn(err, notFoundErrors)
}

func errorIn(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,
	authorization.ErrInvalidRole,
	authorization.ErrInvalidObject,
	authorization.ErrInvalidAction,

	customerdomain.ErrInvalidID,
	customerdomain.ErrInvalidName,
	customerdomain.ErrInvalidPhone,
	customerdomain.ErrInvalidEmail,
	customerdomain.ErrInvalidAddress,
	customerdomain.ErrInvalidSubscriptionType,
	customerdomain.ErrInvalidMeterNumber,
	customerdomain.ErrInvalidMeterType,
	customerdomain.ErrInvalidPower,

	readingdomain.ErrInvalidID,
	readingdomain.ErrInvalidIndex,
	readingdomain.ErrIndexBelowPrevious,
	readingdomain.ErrInvalidAgent,
	readingdomain.ErrInvalidReadingDate,
	readingdomain.ErrInvalidStatus,
	readingdomain.ErrMeterMismatch,

	invoicedomain.ErrInvalidID,
	invoicedomain.ErrInvalidPeriod,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidReason,

	paymentdomain.ErrInvalidID,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidPaymentMode,
	paymentdomain.ErrInvalidChannel,
	paymentdomain.ErrAgentRequired,

	feedbackdomain.ErrInvalidID,
	feedbackdomain.ErrInvalidComplaintType,
	feedbackdomain.ErrInvalidSubject,
	feedbackdomain.ErrInvalidStatus,
	feedbackdomain.ErrInvalidAssignee,
	feedbackdomain.ErrInvalidResponse,
	feedbackdomain.ErrInvalidCategory,
	feedbackdomain.ErrRatingOutOfRange,

	billingdashboarddomain.ErrInvalidAgent,

	ticketingdomain.ErrInvalidID,
	ticketingdomain.ErrInvalidName,
	ticketingdomain.ErrInvalidPrefix,
	ticketingdomain.ErrInvalidTransportType,
	ticketingdomain.ErrInvalidRoute,
	ticketingdomain.ErrInvalidPrice,
	ticketingdomain.ErrInvalidDuration,
	ticketingdomain.ErrInvalidDepartureTime,
	ticketingdomain.ErrInvalidSeats,
	ticketingdomain.ErrInvalidSeatCount,
	ticketingdomain.ErrInvalidClient,
	ticketingdomain.ErrInvalidChannel,
	ticketingdomain.ErrInvalidPaymentMode,
	ticketingdomain.ErrInvalidStatus,
	ticketingdomain.ErrAgentRequired,
}

var conflictErrors = []error{
	customerdomain.ErrDuplicateMeterNumber,
	customerdomain.ErrClientInactive,
	customerdomain.ErrMeterInactive,

	readingdomain.ErrReadingAlreadyDecided,

	invoicedomain.ErrReadingNotValidated,
	invoicedomain.ErrTariffNotFound,
	invoicedomain.ErrInvoiceAlreadyPaid,
	invoicedomain.ErrInvoiceCancelled,
	invoicedomain.ErrInvoicePartiallyPaid,

	paymentdomain.ErrAmountExceedsBalance,

	feedbackdomain.ErrComplaintAlreadyResolved,
	feedbackdomain.ErrComplaintNotNew,
	feedbackdomain.ErrComplaintNotResolved,

	ticketingdomain.ErrDuplicatePrefix,
	ticketingdomain.ErrOperatorInactive,
	ticketingdomain.ErrLineInactive,
	ticketingdomain.ErrDepartureCancelled,
	ticketingdomain.ErrCapacityExceeded,
	ticketingdomain.ErrTicketNotValid,
}

var notFoundErrors = []error{
	customerdomain.ErrZoneNotFound,
	customerdomain.ErrClientNotFound,
	customerdomain.ErrMeterNotFound,
	readingdomain.ErrReadingNotFound,
	invoicedomain.ErrInvoiceNotFound,
	paymentdomain.ErrPaymentNotFound,
	feedbackdomain.ErrComplaintNotFound,
	ticketingdomain.ErrOperatorNotFound,
	ticketingdomain.ErrLineNotFound,
	ticketingdomain.ErrDepartureNotFound,
	ticketingdomain.ErrTicketNotFound,
}

// errorCode turns a sentinel message into a snake_case code.
func errorCode(err error) string {
	return strings.ReplaceAll(strings.TrimSpace(err.Error()), " ", "_")
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return errorCode(target)
		}
	}
	return errorCode(err)
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(err error) string {
	msg := err.Error()
	if strings.Contains(msg, " ") {
		return msg
	}
	return "invalid value"
}
