package bidanalysis

import (
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bidanalysis.service",
	fx.Provide(service.NewService),
)
