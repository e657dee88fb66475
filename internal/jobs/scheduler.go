// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный пересчёт бизнесов
// и ежечасный страховочный обход уведомлений о выходе.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/business"
	"serotonyl.ru/city-bot/internal/features/crime"
)

// Scheduler управляет фоновыми задачами движка.
type Scheduler struct {
	cron            *cron.Cron
	crimeService    *crime.Service
	businessService *business.Service
}

// NewScheduler создаёт планировщик задач в серверном часовом поясе.
func NewScheduler(crimeService *crime.Service, businessService *business.Service) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(common.ServerLocation())),
		crimeService:    crimeService,
		businessService: businessService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Суточный пересчёт бизнесов в 00:05: бонусы трейдинга за
	// завершившийся день, серии производства, чистка штрафов розницы.
	s.cron.AddFunc("5 0 * * *", func() {
		day := business.DayKey(time.Now().Add(-24 * time.Hour))
		log.WithField("day", day).Info("[CRON] Суточный пересчёт бизнесов")
		if err := s.businessService.DailyRollover(ctx, day); err != nil {
			log.WithError(err).Error("[CRON] Ошибка суточного пересчёта")
		}
	})

	// Страховочный обход уведомлений каждый час: подбирает таймеры,
	// потерянные при рестарте процесса.
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Обход просроченных уведомлений")
		if err := s.crimeService.NotifySweep(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка обхода уведомлений")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик, дождавшись активных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
