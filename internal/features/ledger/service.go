// Package ledger — service.go содержит бизнес-логику счетов.
// Валидация сумм, атомарные списания/зачисления, переводы.
package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
)

// Service управляет счётами виртуальной валюты.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис счетов.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Balance возвращает текущий баланс пользователя.
func (s *Service) Balance(ctx context.Context, guildID, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, guildID, userID)
}

// Credit зачисляет кредиты пользователю.
// Используется для наград за преступления, выводов из сейфа и т.д.
func (s *Service) Credit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.Credit(ctx, guildID, userID, amount, txType, description)
}

// Debit списывает кредиты. Каждый вызов атомарен:
// при нехватке средств возвращается common.ErrInsufficientFunds,
// и баланс остаётся нетронутым.
func (s *Service) Debit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.Debit(ctx, guildID, userID, amount, txType, description)
}

// Transfer переводит кредиты между пользователями одной гильдии.
func (s *Service) Transfer(ctx context.Context, guildID, fromUserID, toUserID, amount int64, txType, description string) error {
	if fromUserID == toUserID {
		return common.ErrSelfTarget
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.repo.Transfer(ctx, guildID, fromUserID, toUserID, amount, txType, description); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild":  guildID,
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")

	return nil
}

// EnsureBalance создаёт нулевой счёт для нового участника.
func (s *Service) EnsureBalance(ctx context.Context, guildID, userID int64) error {
	return s.repo.EnsureBalance(ctx, guildID, userID)
}
