package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tramitex/cotiza/internal/clock"
	"github.com/tramitex/cotiza/internal/config"
	"github.com/tramitex/cotiza/internal/logger"
	"github.com/tramitex/cotiza/internal/migration"
	"github.com/tramitex/cotiza/internal/server"
	"github.com/tramitex/cotiza/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface; imports the quote and catalog domains.
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
