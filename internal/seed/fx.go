package seed

import (
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	ticketingstore "github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/fx"
)

var Module = fx.Module("seed",
	fx.Provide(ProvideBilling),
	fx.Provide(ProvideTicketing),
)

// ProvideBilling returns nil when seeding is disabled, so missing keys stay
// empty.
func ProvideBilling(cfg config.Config, clk clock.Clock, tariff *config.TariffHolder) billingstore.Seed {
	if !cfg.SeedOnEmpty {
		return nil
	}
	return func() *billingstore.State {
		return Billing(clk.Now(), tariff.Get())
	}
}

func ProvideTicketing(cfg config.Config, clk clock.Clock) ticketingstore.Seed {
	if !cfg.SeedOnEmpty {
		return nil
	}
	return func() *ticketingstore.State {
		return Ticketing(clk.Now())
	}
}
