// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки экономики (кредиты)
var (
	// ErrInsufficientFunds — недостаточно кредитов на счёте
	ErrInsufficientFunds = errors.New("недостаточно кредитов на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки преступлений
var (
	// ErrUnknownCrime — неизвестный тип преступления
	ErrUnknownCrime = errors.New("такого преступления не существует")
	// ErrCrimeDisabled — преступление отключено администратором
	ErrCrimeDisabled = errors.New("это преступление сейчас отключено")
	// ErrSelfTarget — попытка ограбить самого себя
	ErrSelfTarget = errors.New("нельзя ограбить самого себя")
	// ErrTargetRequired — для этого преступления нужна цель
	ErrTargetRequired = errors.New("для этого преступления нужно выбрать цель")
)

// Ошибки тюрьмы
var (
	// ErrNotJailed — пользователь не находится в тюрьме
	ErrNotJailed = errors.New("вы не в тюрьме")
	// ErrBailDisabled — залог отключён на этом сервере
	ErrBailDisabled = errors.New("залог отключён на этом сервере")
	// ErrAlreadyAttempted — побег уже был предпринят в этот срок
	ErrAlreadyAttempted = errors.New("вы уже пытались сбежать в этот срок")
	// ErrNotifyLocked — уведомления о выходе не куплены
	ErrNotifyLocked = errors.New("уведомления о выходе ещё не куплены")
)

// Ошибки бизнеса
var (
	// ErrNoBusiness — у пользователя нет бизнеса
	ErrNoBusiness = errors.New("у вас ещё нет бизнеса")
	// ErrBusinessExists — бизнес уже создан
	ErrBusinessExists = errors.New("у вас уже есть бизнес")
	// ErrUnknownIndustry — неизвестная отрасль
	ErrUnknownIndustry = errors.New("такой отрасли не существует")
	// ErrVaultLimit — сейф не вмещает такую сумму
	ErrVaultLimit = errors.New("сейф не вмещает такую сумму")
	// ErrVaultShort — в сейфе недостаточно кредитов
	ErrVaultShort = errors.New("в сейфе недостаточно кредитов")
	// ErrMaxLevel — бизнес уже максимального уровня
	ErrMaxLevel = errors.New("бизнес уже максимального уровня")
	// ErrUpgradeVault — в сейфе слишком мало для апгрейда
	ErrUpgradeVault = errors.New("для апгрейда в сейфе должно лежать больше кредитов")
	// ErrSameIndustry — отрасль совпадает с текущей
	ErrSameIndustry = errors.New("ваш бизнес уже работает в этой отрасли")
)

// Ошибки магазина (перки и защита бизнеса)
var (
	// ErrUnknownItem — такого предмета нет в продаже
	ErrUnknownItem = errors.New("такого предмета нет в продаже")
	// ErrItemOwned — предмет уже куплен
	ErrItemOwned = errors.New("этот предмет уже куплен")
	// ErrItemLevelGate — уровень бизнеса слишком низкий для предмета
	ErrItemLevelGate = errors.New("уровень бизнеса слишком низкий для этого предмета")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrInvalidConfig — параметр вне допустимого диапазона
	ErrInvalidConfig = errors.New("некорректное значение параметра")
)

// IneligibleError — действие сейчас недоступно: кулдаун, тюрьма,
// неподходящая цель. Ошибка восстановимая: пользователю показывается
// причина и, если применимо, время до повтора.
type IneligibleError struct {
	Reason     string
	RetryAfter time.Duration // 0, если повтор не зависит от времени
}

func (e *IneligibleError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (повтор через %s)", e.Reason, FormatDuration(e.RetryAfter))
	}
	return e.Reason
}

// NewIneligible создаёт IneligibleError без таймера повтора.
func NewIneligible(reason string) *IneligibleError {
	return &IneligibleError{Reason: reason}
}

// NewIneligibleRetry создаёт IneligibleError с временем до повтора.
func NewIneligibleRetry(reason string, retryAfter time.Duration) *IneligibleError {
	return &IneligibleError{Reason: reason, RetryAfter: retryAfter}
}

// IsIneligible проверяет, является ли ошибка IneligibleError.
func IsIneligible(err error) bool {
	var ie *IneligibleError
	return errors.As(err, &ie)
}
