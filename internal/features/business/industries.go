// Package business — industries.go: таблица уровней, отраслевые
// формулы ставки и почасовое начисление прибыли.
// Все суммы округляются вниз до целого кредита.
package business

import (
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"serotonyl.ru/city-bot/internal/common"
)

// Отрасли.
const (
	IndustryTrading       = "trading"
	IndustryManufacturing = "manufacturing"
	IndustryRetail        = "retail"
)

// ValidIndustry проверяет имя отрасли.
func ValidIndustry(industry string) bool {
	switch industry {
	case IndustryTrading, IndustryManufacturing, IndustryRetail:
		return true
	}
	return false
}

// LevelInfo — параметры одного уровня бизнеса.
type LevelInfo struct {
	MaxVault int64
	// Базовая дневная ставка до отраслевых модификаторов.
	BaseDailyRate float64
	// Стоимость апгрейда ДО этого уровня.
	UpgradeCost int64
}

// MaxLevel — потолок развития бизнеса.
const MaxLevel = 4

// StartCost — регистрация нового бизнеса.
const StartCost int64 = 5000

// levelTable индексируется уровнем (1..MaxLevel).
var levelTable = map[int]LevelInfo{
	1: {MaxVault: 37500, BaseDailyRate: 0.0100},
	2: {MaxVault: 100000, BaseDailyRate: 0.0125, UpgradeCost: 25000},
	3: {MaxVault: 250000, BaseDailyRate: 0.0150, UpgradeCost: 75000},
	4: {MaxVault: 600000, BaseDailyRate: 0.0200, UpgradeCost: 200000},
}

// MaxVault — потолок сейфа для уровня.
func MaxVault(level int) int64 {
	return levelTable[clampLevel(level)].MaxVault
}

// BaseRate — базовая дневная ставка уровня.
func BaseRate(level int) float64 {
	return levelTable[clampLevel(level)].BaseDailyRate
}

// UpgradeCost — стоимость апгрейда на уровень level.
func UpgradeCost(level int) int64 {
	return levelTable[clampLevel(level)].UpgradeCost
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// DayKey — ключ серверного дня для детерминированных расчётов.
func DayKey(t time.Time) string {
	return t.In(common.ServerLocation()).Format("2006-01-02")
}

// DailyFluctuation — детерминированное на (гильдия, пользователь, день)
// колебание ставки трейдинга в [-(10%+5%×(level-1)), +(10%+5%×(level-1))].
// Один и тот же день всегда даёт одно и то же значение.
func DailyFluctuation(guildID, userID int64, day string, level int) float64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(guildID, 10)))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	h.Write([]byte{':'})
	h.Write([]byte(day))

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	span := 0.10 + 0.05*float64(clampLevel(level)-1)
	return -span + rng.Float64()*2*span
}

// EffectiveDailyRate — дневная ставка бизнеса на заданный день.
// Отрицательная ставка зажимается в ноль: сейф не тает сам по себе.
func EffectiveDailyRate(b *Business, day string, now time.Time) float64 {
	base := BaseRate(b.Level)

	var rate float64
	switch b.Industry {
	case IndustryTrading:
		fluct := DailyFluctuation(b.GuildID, b.UserID, day, b.Level)
		rate = base*(1+fluct) + b.TradingBonusPct
	case IndustryManufacturing:
		streak := b.ManufacturingStreak
		if streak > 20 {
			streak = 20
		}
		// Небольшой относительный малус к базе в обмен на бонус
		// за серию дней без снятий (+0.5% за день, потолок +10%).
		rate = base*0.99 + 0.005*float64(streak)
	case IndustryRetail:
		rate = base*1.35 - b.ActivePenaltyPct(now)
	default:
		rate = base
	}

	if rate < 0 {
		return 0
	}
	return rate
}

// maxTradingBonus — потолок бонуса трейдинга.
const maxTradingBonus = 0.10

// Accrue начисляет прибыль за целые прошедшие часы:
// за каждый час сейф растёт на floor(vault × ставка / 24), но не выше
// потолка уровня. Неполный час переносится на следующее начисление.
// Возвращает суммарную начисленную прибыль.
func Accrue(b *Business, now time.Time) int64 {
	if b.LastAccrual.IsZero() {
		b.LastAccrual = now
		return 0
	}

	hours := int(now.Sub(b.LastAccrual) / time.Hour)
	if hours <= 0 {
		return 0
	}

	limit := MaxVault(b.Level)
	var total int64
	for i := 0; i < hours; i++ {
		at := b.LastAccrual.Add(time.Duration(i+1) * time.Hour)
		rate := EffectiveDailyRate(b, DayKey(at), at)
		profit := int64(float64(b.Vault) * rate / 24)
		if b.Vault+profit > limit {
			profit = limit - b.Vault
		}
		if profit > 0 {
			b.Vault += profit
			total += profit
		}
	}
	b.LastAccrual = b.LastAccrual.Add(time.Duration(hours) * time.Hour)
	return total
}

// DailyRollover обновляет суточные серии бизнеса на границе дня:
// трейдинг копит бонус за положительные дни, производство — серию
// дней без снятий, розница избавляется от истёкших штрафов.
// day — завершившийся день, now — момент обработки.
func DailyRollover(b *Business, day string, now time.Time) {
	if b.LastRolloverDay == day {
		return
	}
	b.LastRolloverDay = day

	switch b.Industry {
	case IndustryTrading:
		fluct := DailyFluctuation(b.GuildID, b.UserID, day, b.Level)
		if fluct > 0 {
			b.TradingBonusPct += 0.01
			if b.TradingBonusPct > maxTradingBonus {
				b.TradingBonusPct = maxTradingBonus
			}
		} else {
			b.TradingBonusPct = 0
		}
	case IndustryManufacturing:
		if DayKey(b.LastWithdrawal) != day {
			b.ManufacturingStreak++
		}
	case IndustryRetail:
		b.PrunePenalties(now)
	}
}
