// Package settings — хранилище настроек по гильдиям.
// models.go описывает параметры преступлений и глобальные настройки.
// Чистая модель чтения для остальных компонентов: мутации только
// через админ-команды, удаление — только при полном вайпе.
package settings

import (
	"time"

	"serotonyl.ru/city-bot/internal/common"
)

// CrimeConfig — параметры одного типа преступления в гильдии.
type CrimeConfig struct {
	GuildID        int64
	CrimeType      string
	RequiresTarget bool
	MinReward      int64
	MaxReward      int64
	SuccessRate    float64 // [0, 1]
	Cooldown       time.Duration
	JailTime       time.Duration
	Risk           string // low / medium / high / random
	Enabled        bool
	FineMult       float64 // штраф = max_reward × FineMult
	// Для целевых преступлений: украденная доля баланса цели
	MinStealPct float64
	MaxStealPct float64
}

// Validate проверяет конфиг на границе: неверные значения отклоняются,
// прежнее состояние в БД не меняется.
func (c *CrimeConfig) Validate() error {
	if c.SuccessRate < 0 || c.SuccessRate > 1 {
		return common.ErrInvalidConfig
	}
	if c.MinReward < 0 || c.MaxReward < c.MinReward {
		return common.ErrInvalidConfig
	}
	if c.Cooldown < 0 || c.JailTime < 0 {
		return common.ErrInvalidConfig
	}
	if c.FineMult < 0 {
		return common.ErrInvalidConfig
	}
	if c.MinStealPct < 0 || c.MaxStealPct > 1 || c.MaxStealPct < c.MinStealPct {
		return common.ErrInvalidConfig
	}
	return nil
}

// GlobalSettings — общие настройки гильдии: тюрьма, залог, цели, уведомления.
type GlobalSettings struct {
	GuildID         int64
	DefaultJailTime time.Duration
	DefaultFineMult float64
	AllowBail       bool
	// Стоимость залога = BailCostMult × оставшиеся минуты срока
	BailCostMult float64
	// Минимальный баланс, при котором пользователя можно грабить
	MinStealBalance int64
	// Потолок суммы одной кражи
	MaxStealAmount int64
	// Продление срока при провале побега, доля от остатка
	JailbreakPenaltyPct float64
	// Стоимость разблокировки уведомлений о выходе (0 = бесплатно)
	NotifyCost        int64
	NotifyCostEnabled bool
}

// Validate проверяет глобальные настройки.
func (g *GlobalSettings) Validate() error {
	if g.DefaultJailTime < 0 || g.DefaultFineMult < 0 || g.BailCostMult < 0 {
		return common.ErrInvalidConfig
	}
	if g.MinStealBalance < 0 || g.MaxStealAmount < 0 {
		return common.ErrInvalidConfig
	}
	if g.JailbreakPenaltyPct < 0 || g.JailbreakPenaltyPct > 1 {
		return common.ErrInvalidConfig
	}
	if g.NotifyCost < 0 {
		return common.ErrInvalidConfig
	}
	return nil
}
