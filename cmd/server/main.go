package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"studio-desk/internal/models/config"
	_ "studio-desk/migrations"
	database "studio-desk/pkg"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrate(os.Args[2:]); err != nil {
			log.Fatalf("❌ Ошибка миграции: %v", err)
		}
		return
	}

	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			loadConfig,
			newLogger,
		),
		storageModule,
		serviceModule,
		fx.Provide(newHandler),
		fx.Invoke(registerHTTPServer, registerBot),
	).Run()
}

// loadConfig загружает конфигурацию один раз для всего приложения
func loadConfig() (*config.Config, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return config.AppConfig, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// migrate runs `server migrate [-dir migrations]`.
func migrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "migrations", "directory with migration sources")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewPostgres(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db.DB, *dir); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.String("dir", *dir))
	return nil
}
