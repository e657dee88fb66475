// Package admin — service.go: проверка прав, вайпы и правка конфигов.
// Полный вайп гильдии защищён паролем Argon2id с ограничением
// числа попыток.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/config"
	"serotonyl.ru/city-bot/internal/features/business"
	"serotonyl.ru/city-bot/internal/features/crime"
	"serotonyl.ru/city-bot/internal/features/settings"
)

// Service выполняет админ-операции движка.
type Service struct {
	repo       *Repository
	cfg        *config.Config
	settings   *settings.Service
	crimes     *crime.Service
	businesses *business.Service
}

// NewService создаёт админ-сервис.
func NewService(repo *Repository, cfg *config.Config, st *settings.Service, cr *crime.Service, bs *business.Service) *Service {
	return &Service{
		repo:       repo,
		cfg:        cfg,
		settings:   st,
		crimes:     cr,
		businesses: bs,
	}
}

// IsAdmin проверяет права администратора по списку из конфигурации.
func (s *Service) IsAdmin(userID int64) bool {
	return s.cfg.IsAdmin(userID)
}

// WipeUser стирает криминальное и бизнес-состояние пользователя,
// снимает запланированные уведомления и ссылки на него как на цель.
func (s *Service) WipeUser(ctx context.Context, guildID, adminID, targetID int64) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}

	if err := s.crimes.ResetUser(ctx, guildID, targetID); err != nil {
		return err
	}
	if err := s.businesses.ResetUser(ctx, guildID, targetID); err != nil {
		return err
	}

	s.audit(ctx, &AuditEntry{
		GuildID:  guildID,
		AdminID:  adminID,
		Action:   ActionWipeUser,
		TargetID: targetID,
	})
	log.WithFields(log.Fields{"guild": guildID, "admin": adminID, "target": targetID}).Warn("Состояние пользователя стёрто")
	return nil
}

// WipeAll стирает все данные гильдии и возвращает настройки
// к дефолтам. Требует пароль; 3 неудачные попытки блокируют на час.
func (s *Service) WipeAll(ctx context.Context, guildID, adminID int64, password string) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.repo.GetRecentAttempts(ctx, adminID, time.Hour)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return common.NewIneligibleRetry("слишком много попыток, подождите час", time.Hour)
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, adminID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку подтверждения")
	}
	if !match {
		return common.ErrWrongPassword
	}

	if err := s.crimes.WipeGuild(ctx, guildID); err != nil {
		return err
	}
	if err := s.businesses.WipeGuild(ctx, guildID); err != nil {
		return err
	}
	if err := s.settings.WipeGuild(ctx, guildID); err != nil {
		return err
	}

	s.audit(ctx, &AuditEntry{
		GuildID: guildID,
		AdminID: adminID,
		Action:  ActionWipeAll,
	})
	log.WithFields(log.Fields{"guild": guildID, "admin": adminID}).Warn("Гильдия стёрта полностью")
	return nil
}

// SetCrimeConfig сохраняет конфиг преступления через валидацию настроек.
func (s *Service) SetCrimeConfig(ctx context.Context, adminID int64, cfg *settings.CrimeConfig) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}
	if err := s.settings.UpdateCrime(ctx, cfg); err != nil {
		return err
	}
	s.audit(ctx, &AuditEntry{
		GuildID: cfg.GuildID,
		AdminID: adminID,
		Action:  ActionCrimeConfig,
		Details: cfg.CrimeType,
	})
	return nil
}

// SetGlobalSettings сохраняет глобальные настройки гильдии.
func (s *Service) SetGlobalSettings(ctx context.Context, adminID int64, g *settings.GlobalSettings) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}
	if err := s.settings.UpdateGlobal(ctx, g); err != nil {
		return err
	}
	s.audit(ctx, &AuditEntry{
		GuildID: g.GuildID,
		AdminID: adminID,
		Action:  ActionGlobalConfig,
	})
	return nil
}

// Audit возвращает последние админ-операции гильдии.
func (s *Service) Audit(ctx context.Context, guildID int64, limit int) ([]*AuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListActions(ctx, guildID, limit)
}

func (s *Service) audit(ctx context.Context, e *AuditEntry) {
	if err := s.repo.LogAction(ctx, e); err != nil {
		log.WithError(err).Error("Не удалось записать аудит")
	}
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack).
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
