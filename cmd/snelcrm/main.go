package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/authorization"
	"github.com/smallbiznis/snelcrm/internal/billingdashboard"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/customer"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/feedback"
	"github.com/smallbiznis/snelcrm/internal/invoice"
	"github.com/smallbiznis/snelcrm/internal/observability"
	"github.com/smallbiznis/snelcrm/internal/payment"
	"github.com/smallbiznis/snelcrm/internal/providers"
	"github.com/smallbiznis/snelcrm/internal/ratelimit"
	"github.com/smallbiznis/snelcrm/internal/reading"
	"github.com/smallbiznis/snelcrm/internal/scheduler"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/smallbiznis/snelcrm/internal/server"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/ticketing"
	"github.com/smallbiznis/snelcrm/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		snapshot.Module,
		events.Module,
		ratelimit.Module,
		providers.Module,
		authorization.Module,
		seed.Module,

		// Electricity CRM
		billingstore.Module,
		customer.Module,
		reading.Module,
		invoice.Module,
		payment.Module,
		feedback.Module,
		billingdashboard.Module,

		// Ticketing back office
		ticketing.Module,

		scheduler.Module,
		server.Module,
		fx.Invoke(func(s *server.Server) {
			s.RegisterBillingRoutes()
			s.RegisterTicketingRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
