package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis"
	"github.com/smallbiznis/tenderscope/internal/clock"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/smallbiznis/tenderscope/internal/migration"
	"github.com/smallbiznis/tenderscope/internal/observability"
	"github.com/smallbiznis/tenderscope/internal/ratelimit"
	"github.com/smallbiznis/tenderscope/internal/seed"
	"github.com/smallbiznis/tenderscope/internal/server"
	"github.com/smallbiznis/tenderscope/internal/tender"
	"github.com/smallbiznis/tenderscope/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		tender.Module,
		bidanalysis.Module,
		ratelimit.Module,
		seed.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
