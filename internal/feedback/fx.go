package feedback

import (
	"github.com/smallbiznis/snelcrm/internal/feedback/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feedback.service",
	fx.Provide(service.New),
)
