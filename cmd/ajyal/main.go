package main

import (
	"github.com/ajyalhq/ajyal/internal/clock"
	"github.com/ajyalhq/ajyal/internal/config"
	"github.com/ajyalhq/ajyal/internal/migration"
	"github.com/ajyalhq/ajyal/internal/observability"
	"github.com/ajyalhq/ajyal/internal/server"
	"github.com/ajyalhq/ajyal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
