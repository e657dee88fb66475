// Package settings — service.go материализует дефолты при первом
// обращении гильдии и валидирует все админские изменения на границе.
package settings

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
)

// Service управляет настройками гильдий.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис настроек.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Global возвращает глобальные настройки гильдии,
// создавая дефолтные при первом обращении.
func (s *Service) Global(ctx context.Context, guildID int64) (*GlobalSettings, error) {
	g, err := s.repo.GetGlobal(ctx, guildID)
	if err == nil {
		return g, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("ошибка чтения настроек гильдии: %w", err)
	}

	if err := s.materialize(ctx, guildID); err != nil {
		return nil, err
	}
	return s.repo.GetGlobal(ctx, guildID)
}

// Crime возвращает конфиг преступления, создавая дефолты гильдии
// при первом обращении. Неизвестный тип — common.ErrUnknownCrime.
func (s *Service) Crime(ctx context.Context, guildID int64, crimeType string) (*CrimeConfig, error) {
	c, err := s.repo.GetCrime(ctx, guildID, crimeType)
	if err == nil {
		return c, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("ошибка чтения конфига преступления: %w", err)
	}

	if err := s.materialize(ctx, guildID); err != nil {
		return nil, err
	}
	c, err = s.repo.GetCrime(ctx, guildID, crimeType)
	if IsNotFound(err) {
		return nil, common.ErrUnknownCrime
	}
	return c, err
}

// Crimes возвращает все конфиги преступлений гильдии.
func (s *Service) Crimes(ctx context.Context, guildID int64) ([]*CrimeConfig, error) {
	if _, err := s.Global(ctx, guildID); err != nil {
		return nil, err
	}
	return s.repo.ListCrimes(ctx, guildID)
}

// UpdateCrime валидирует и сохраняет конфиг преступления.
// При ошибке валидации прежняя запись в БД не меняется.
func (s *Service) UpdateCrime(ctx context.Context, c *CrimeConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveCrime(ctx, c); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"guild": c.GuildID,
		"crime": c.CrimeType,
	}).Info("Конфиг преступления обновлён")
	return nil
}

// UpdateGlobal валидирует и сохраняет глобальные настройки.
func (s *Service) UpdateGlobal(ctx context.Context, g *GlobalSettings) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveGlobal(ctx, g); err != nil {
		return err
	}
	log.WithField("guild", g.GuildID).Info("Глобальные настройки обновлены")
	return nil
}

// WipeGuild сбрасывает настройки гильдии к дефолтам.
func (s *Service) WipeGuild(ctx context.Context, guildID int64) error {
	return s.repo.WipeGuild(ctx, guildID)
}

// materialize дозаписывает недостающие дефолтные настройки гильдии.
// Уже существующие (и изменённые админами) записи не перетираются.
func (s *Service) materialize(ctx context.Context, guildID int64) error {
	if err := s.repo.EnsureGlobal(ctx, DefaultGlobalSettings(guildID)); err != nil {
		return err
	}
	for _, c := range DefaultCrimeConfigs(guildID) {
		if err := s.repo.EnsureCrime(ctx, c); err != nil {
			return err
		}
	}
	log.WithField("guild", guildID).Info("Созданы дефолтные настройки гильдии")
	return nil
}
