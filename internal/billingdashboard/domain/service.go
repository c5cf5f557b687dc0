package domain

import (
	"context"
	"errors"
)

type Service interface {
	BillingSummary(context.Context) (BillingSummary, error)
	AgentActivity(ctx context.Context, agentID string) (AgentActivity, error)
	ListClientBalances(context.Context) (ClientBalancesResponse, error)
	ListPeriods(context.Context) (PeriodSummaryResponse, error)
	ListBillingActivity(ctx context.Context, limit int) (BillingActivityResponse, error)
}

var ErrInvalidAgent = errors.New("invalid_agent")
