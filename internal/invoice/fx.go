package invoice

import (
	"github.com/smallbiznis/snelcrm/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.New),
)
