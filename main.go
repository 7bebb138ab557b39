package main

import (
	"flag"

	"github.com/nenelamp/cyberguard/internal/authapi"
	"github.com/nenelamp/cyberguard/internal/config"
	"github.com/nenelamp/cyberguard/internal/gateway"
	"github.com/nenelamp/cyberguard/internal/session"
	"github.com/nenelamp/cyberguard/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var configPath = flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	newConfig := func() (*config.Config, error) {
		return config.New(*configPath)
	}

	app := fx.New(
		fx.Provide(
			zap.NewDevelopment,
			newConfig,
			store.NewJSON,
			authapi.New,
			session.New,
			gateway.New,
		),
		fx.Invoke(
			session.RegisterHooks,
			gateway.RegisterHooks,
		),
	)

	app.Run()
}
