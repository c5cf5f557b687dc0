package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/authorization"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/observability"
	"github.com/smallbiznis/snelcrm/internal/scheduler"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/smallbiznis/snelcrm/internal/server"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/ticketing"
	"github.com/smallbiznis/snelcrm/pkg/db"
	"go.uber.org/fx"
)

// ticketing serves the seat inventory for transport operators.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		snapshot.Module,
		events.Module,
		authorization.Module,
		seed.Module,

		ticketing.Module,

		scheduler.Module,
		server.Module,
		fx.Invoke(func(s *server.Server) {
			s.RegisterTicketingRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
