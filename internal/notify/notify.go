// Package notify — отложенная доставка уведомлений.
// Планировщик держит по одному таймеру на ключ: повторное
// планирование того же ключа заменяет прежний таймер.
package notify

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler — таймеры уведомлений в памяти процесса.
// После рестарта таймеры теряются, их подбирает часовой обход БД.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler создаёт пустой планировщик.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule ставит срабатывание fn на момент at.
// Прошедший момент срабатывает сразу.
func (s *Scheduler) Schedule(key string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})

	log.WithFields(log.Fields{"key": key, "at": at}).Debug("Уведомление запланировано")
}

// Cancel снимает таймер ключа, если он есть.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Stop останавливает все таймеры (завершение процесса).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
