package migration

import (
	"strings"

	"github.com/smallbiznis/tenderscope/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		dialect := strings.ToLower(strings.TrimSpace(cfg.DBType))
		if err := Apply(conn, dialect); err != nil {
			return err
		}
		log.Info("database schema ready", zap.String("dialect", dialect))
		return nil
	}),
)
