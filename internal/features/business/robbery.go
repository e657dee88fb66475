// Package business — robbery.go: механика ограблений чужих сейфов.
// Лимит один налёт на бизнес в сутки, независимо от грабителя.
package business

import (
	"math/rand"
	"time"

	"serotonyl.ru/city-bot/internal/common"
)

const (
	// Сейфы беднее не грабят.
	MinRobbableVault int64 = 2500
	// Окно защиты бизнеса после любой попытки.
	RobberyWindow = 24 * time.Hour

	robberyBaseChance   = 0.50
	robberyRetailBonus  = 0.15
	robberySecurityCut  = 0.10
	robberyMinStealPct  = 0.05
	robberyMaxStealPct  = 0.15
	robberyRiskMgmtCut  = 0.05
	robberyStealFloor   = 0.01
	premiumVaultShield  = 0.25
	insuranceRefundPct  = 0.25
	manufacturingFactor = 0.85
)

// CanRob проверяет, можно ли грабить этот бизнес сейчас.
func CanRob(b *Business, now time.Time) error {
	if b.Vault < MinRobbableVault {
		return common.NewIneligible("в сейфе слишком мало для налёта")
	}
	if !b.LastRobbedAt.IsZero() {
		if until := b.LastRobbedAt.Add(RobberyWindow); until.After(now) {
			return common.NewIneligibleRetry("бизнес недавно грабили", until.Sub(now))
		}
	}
	return nil
}

// RobberyChance — шанс успеха налёта на бизнес:
// база 50%, розница заметнее (+15%), охранная система владельца −10%,
// плюс криминальные бонусы самого грабителя (перки).
// Результат зажат в [0.05, 0.95].
func RobberyChance(b *Business, attackerBonus float64) float64 {
	chance := robberyBaseChance + attackerBonus
	if b.Industry == IndustryRetail {
		chance += robberyRetailBonus
	}
	if b.HasItem(ItemSecuritySystem) {
		chance -= robberySecurityCut
	}
	if chance < 0.05 {
		return 0.05
	}
	if chance > 0.95 {
		return 0.95
	}
	return chance
}

// RollSteal — украденная доля сейфа: равномерно 5–15%, минус
// риск-менеджмент владельца (−5 п.п.), производство прячет товар
// (−15% относительной доли). Пол — 1%.
func RollSteal(b *Business, rng *rand.Rand) float64 {
	pct := robberyMinStealPct + rng.Float64()*(robberyMaxStealPct-robberyMinStealPct)
	if b.HasItem(ItemRiskManagement) {
		pct -= robberyRiskMgmtCut
	}
	if b.Industry == IndustryManufacturing {
		pct *= manufacturingFactor
	}
	if pct < robberyStealFloor {
		return robberyStealFloor
	}
	return pct
}

// StealAmount считает добычу: премиум-сейф укрывает верхние 25%
// баланса от кражи.
func StealAmount(b *Business, pct float64) int64 {
	base := b.Vault
	if b.HasItem(ItemPremiumVault) {
		base = int64(float64(base) * (1 - premiumVaultShield))
	}
	amount := int64(float64(base) * pct)
	if amount > b.Vault {
		amount = b.Vault
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// InsuranceRefund — возврат владельцу при наличии страховки сейфа.
func InsuranceRefund(b *Business, stolen int64) int64 {
	if !b.HasItem(ItemVaultInsurance) {
		return 0
	}
	return int64(float64(stolen) * insuranceRefundPct)
}
