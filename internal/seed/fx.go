package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenderscope/internal/clock"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/smallbiznis/tenderscope/internal/tender/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Repo   domain.Repository
	Node   *snowflake.Node
	Clock  clock.Clock
	Log    *zap.Logger
}

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, p Params) {
		if !p.Config.SeedDemo {
			return
		}
		log := p.Log.Named("seed")
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				id, err := EnsureDemoTender(ctx, p.DB, p.Repo, p.Node, p.Clock)
				if err != nil {
					log.Error("failed to seed demo tender", zap.Error(err))
					return err
				}
				log.Info("demo tender ready", zap.String("tender_id", id.String()))
				return nil
			},
		})
	}),
)
