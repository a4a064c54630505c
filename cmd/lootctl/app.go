package main

import (
	"context"
	"os"

	fxmodules "loot-tracker/internal/fx"
	"loot-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type deps struct {
	characters *service.CharacterService
	runs       *service.RunService
	analytics  *service.AnalyticsService
}

// withApp starts the tracker without its HTTP server, hands the services to
// fn and stops everything once fn returns.
func withApp(ctx context.Context, fn func(context.Context, deps) error) error {
	var d deps
	app := fx.New(
		fxmodules.CoreModule,
		fx.NopLogger,
		// stdout belongs to command output
		fx.Decorate(func(l zerolog.Logger) zerolog.Logger {
			return l.Output(os.Stderr)
		}),
		fx.Populate(&d.characters, &d.runs, &d.analytics),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, d)

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
