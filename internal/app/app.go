// Package app инициализирует все компоненты движка.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы,
// планировщики и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/config"
	"serotonyl.ru/city-bot/internal/db/postgres"
	"serotonyl.ru/city-bot/internal/features/admin"
	"serotonyl.ru/city-bot/internal/features/business"
	"serotonyl.ru/city-bot/internal/features/crime"
	"serotonyl.ru/city-bot/internal/features/ledger"
	"serotonyl.ru/city-bot/internal/features/settings"
	"serotonyl.ru/city-bot/internal/jobs"
	"serotonyl.ru/city-bot/internal/notify"
)

// App содержит все компоненты движка города.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Bot    *telego.Bot

	Ledger     *ledger.Service
	Settings   *settings.Service
	Crimes     *crime.Service
	Businesses *business.Service
	Admin      *admin.Service

	Notify    *notify.Scheduler
	Scheduler *jobs.Scheduler
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram (доставка уведомлений) ===
	bot, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, true))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram-бота: %w", err)
	}

	// === 3. Репозитории ===
	ledgerRepo := ledger.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	crimeRepo := crime.NewRepository(pool)
	businessRepo := business.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	locks := common.NewKeyedMutex()
	notifier := notify.NewScheduler()
	deliverer := notify.NewTelegramDeliverer(bot, cfg.NotifyDeliveryTimeout)

	ledgerService := ledger.NewService(ledgerRepo)
	settingsService := settings.NewService(settingsRepo)
	crimeService := crime.NewService(crimeRepo, settingsService, ledgerService, notifier, deliverer, locks)
	businessService := business.NewService(businessRepo, settingsService, ledgerService, crimeService, crimeService, locks)
	crimeService.SetBusinessSummaries(businessService)
	adminService := admin.NewService(adminRepo, cfg, settingsService, crimeService, businessService)

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(crimeService, businessService)

	log.Info("Компоненты движка собраны")
	return &App{
		Config:     cfg,
		DB:         pool,
		Bot:        bot,
		Ledger:     ledgerService,
		Settings:   settingsService,
		Crimes:     crimeService,
		Businesses: businessService,
		Admin:      adminService,
		Notify:     notifier,
		Scheduler:  scheduler,
	}, nil
}

// Start запускает фоновые задачи движка.
func (a *App) Start(ctx context.Context) {
	a.Scheduler.Start(ctx)
}

// Stop корректно останавливает приложение.
func (a *App) Stop() {
	a.Scheduler.Stop()
	a.Notify.Stop()
	a.DB.Close()
	log.Info("Приложение остановлено")
}

// runMigrations выполняет все SQL-миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Ledger},
		{2, migration002Settings},
		{3, migration003Crime},
		{4, migration004Business},
		{5, migration005Admin},
	}
	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return err
		}
	}

	log.WithField("migrations", len(migrations)).Info("Миграции применены")
	return nil
}
