package ticketing

import (
	"github.com/smallbiznis/snelcrm/internal/ticketing/service"
	"github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/fx"
)

var Module = fx.Module("ticketing",
	store.Module,
	fx.Provide(service.New),
)
