package main

import (
	"flag"

	"github.com/matheus3301/wpp-history/internal/config"
	"github.com/matheus3301/wpp-history/internal/daemon"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to config.toml")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{ConfigPath: *configFlag}),
	)

	app.Run()
}
