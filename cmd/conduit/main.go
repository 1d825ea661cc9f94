package main

import (
	"context"
	"log/slog"
	"os"

	"conduit/config"
	"conduit/internal/delivery"
	"conduit/internal/delivery/api"
	"conduit/internal/delivery/api/middleware"
	"conduit/internal/delivery/api/router/handler"
	"conduit/internal/delivery/worker"
	workerhandler "conduit/internal/delivery/worker/handler"
	"conduit/internal/infra/auth"
	"conduit/internal/infra/background"
	"conduit/internal/infra/crypto"
	logs "conduit/internal/infra/log"
	"conduit/internal/infra/n8n"
	"conduit/internal/infra/oauth"
	"conduit/internal/infra/persistence/postgres"
	"conduit/internal/infra/validation"
	"conduit/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
		),
		background.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewAppRepository,
			postgres.NewCredentialRepository,
			postgres.NewUserRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			crypto.NewCipher,
			auth.NewJWTService,
		),
		oauth.Module,
		validation.Module,
		n8n.Module,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialService,
			impl.NewOAuthService,
			impl.NewTokenRefreshService,
			impl.NewMirrorService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewCredentialHandler,
			handler.NewOAuthHandler,
			handler.NewHealthHandler,
			workerhandler.NewRefreshHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
