package tender

import (
	bidanalysis "github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/smallbiznis/tenderscope/internal/tender/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("tender.repository",
	fx.Provide(repository.Provide),
	fx.Provide(
		fx.Annotate(
			repository.NewDataSource,
			fx.As(new(bidanalysis.DataSource)),
		),
	),
)
