package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

// Roles match the consoles of the CRM. The role is selected by the caller,
// there is no credential behind it.
const (
	RoleCitizen   = "citizen"
	RoleAgent     = "agent"
	RoleBilling   = "billing"
	RoleCashier   = "cashier"
	RoleAdmin     = "admin"
	RoleTicketing = "ticketing"
)

const (
	ObjectClient    = "client"
	ObjectReading   = "reading"
	ObjectInvoice   = "invoice"
	ObjectPayment   = "payment"
	ObjectComplaint = "complaint"
	ObjectReview    = "review"
	ObjectDashboard = "dashboard"
	ObjectTicketing = "ticketing"
)

const (
	ActionView   = "view"
	ActionCreate = "create"

	ActionClientDeactivate = "client.deactivate"

	ActionReadingDecide = "reading.decide"

	ActionInvoiceGenerate = "invoice.generate"
	ActionInvoiceCancel   = "invoice.cancel"

	ActionComplaintHandle = "complaint.handle"

	ActionTicketingManage = "ticketing.manage"
	ActionTicketingSell   = "ticketing.sell"
	ActionTicketingCheck  = "ticketing.check"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an in-memory enforcer loaded with the console policies.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("role:%s", role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Citizen portal
		{"role:citizen", ObjectClient, ActionView},
		{"role:citizen", ObjectInvoice, ActionView},
		{"role:citizen", ObjectPayment, ActionView},
		{"role:citizen", ObjectPayment, ActionCreate},
		{"role:citizen", ObjectComplaint, ActionView},
		{"role:citizen", ObjectComplaint, ActionCreate},
		{"role:citizen", ObjectReview, ActionView},
		{"role:citizen", ObjectReview, ActionCreate},

		// Meter-reading agents
		{"role:agent", ObjectClient, ActionView},
		{"role:agent", ObjectReading, ActionView},
		{"role:agent", ObjectReading, ActionCreate},
		{"role:agent", ObjectPayment, ActionCreate},
		{"role:agent", ObjectPayment, ActionView},
		{"role:agent", ObjectDashboard, ActionView},

		// Billing office
		{"role:billing", ObjectClient, ActionView},
		{"role:billing", ObjectClient, ActionCreate},
		{"role:billing", ObjectReading, ActionView},
		{"role:billing", ObjectReading, ActionReadingDecide},
		{"role:billing", ObjectInvoice, ActionView},
		{"role:billing", ObjectInvoice, ActionInvoiceGenerate},
		{"role:billing", ObjectInvoice, ActionInvoiceCancel},
		{"role:billing", ObjectPayment, ActionView},
		{"role:billing", ObjectComplaint, ActionView},
		{"role:billing", ObjectComplaint, ActionComplaintHandle},
		{"role:billing", ObjectReview, ActionView},
		{"role:billing", ObjectDashboard, ActionView},

		// Cashiers
		{"role:cashier", ObjectClient, ActionView},
		{"role:cashier", ObjectInvoice, ActionView},
		{"role:cashier", ObjectPayment, ActionView},
		{"role:cashier", ObjectPayment, ActionCreate},
		{"role:cashier", ObjectDashboard, ActionView},

		// Ticketing back office
		{"role:ticketing", ObjectTicketing, ActionView},
		{"role:ticketing", ObjectTicketing, ActionTicketingSell},
		{"role:ticketing", ObjectTicketing, ActionTicketingCheck},

		// Administrators inherit every console and manage the network
		{"role:admin", ObjectClient, ActionClientDeactivate},
		{"role:admin", ObjectTicketing, "*"},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return err
	}

	inherits := [][]string{
		{"role:admin", "role:billing"},
		{"role:admin", "role:cashier"},
		{"role:admin", "role:agent"},
	}
	if _, err := enforcer.AddGroupingPolicies(inherits); err != nil {
		return err
	}
	return nil
}
