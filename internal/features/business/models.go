// Package business реализует бизнес-движок города: отрасли,
// сейф с почасовым начислением прибыли, апгрейды, магазин защитных
// предметов и ограбления чужих сейфов.
// models.go описывает состояние бизнеса.
package business

import "time"

// RetailPenalty — штраф к ставке розницы после успешного ограбления.
// Штрафы складываются и истекают через 24 часа каждый.
type RetailPenalty struct {
	Pct       float64   `json:"pct"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Business — бизнес пользователя в гильдии, не больше одного.
type Business struct {
	GuildID int64
	UserID  int64

	Name     string
	Industry string
	Level    int

	// Сейф. Инвариант: Vault ≤ MaxVault(Level), деньги в сейфе
	// не лежат на счёте — перемещение только через проводки.
	Vault       int64
	LastAccrual time.Time

	// Трейдинг: накопленный бонус за серию положительных дней.
	TradingBonusPct float64
	// Последний день, обработанный суточным пересчётом.
	// Повторный запуск задачи за тот же день — no-op.
	LastRolloverDay string

	// Производство: серия дней без снятий.
	ManufacturingStreak int
	LastWithdrawal      time.Time

	// Розница: активные штрафы за ограбления.
	RetailPenalties []RetailPenalty

	// Последняя попытка ограбления этого бизнеса (любым грабителем).
	LastRobbedAt time.Time

	// Купленные предметы магазина.
	Items []string

	CreatedAt time.Time
}

// HasItem проверяет владение предметом магазина.
func (b *Business) HasItem(id string) bool {
	for _, it := range b.Items {
		if it == id {
			return true
		}
	}
	return false
}

// ActivePenaltyPct — сумма неистёкших штрафов розницы.
func (b *Business) ActivePenaltyPct(now time.Time) float64 {
	var total float64
	for _, p := range b.RetailPenalties {
		if p.ExpiresAt.After(now) {
			total += p.Pct
		}
	}
	return total
}

// PrunePenalties убирает истёкшие штрафы.
func (b *Business) PrunePenalties(now time.Time) {
	kept := b.RetailPenalties[:0]
	for _, p := range b.RetailPenalties {
		if p.ExpiresAt.After(now) {
			kept = append(kept, p)
		}
	}
	b.RetailPenalties = kept
}

// RobberyOutcome — итог попытки ограбления бизнеса.
type RobberyOutcome struct {
	Success bool
	// Итоговый шанс успеха.
	Chance float64
	// Украдено из сейфа (после всех модификаторов).
	Stolen int64
	// Возвращено владельцу страховкой.
	Insured int64
	// Срок заключения грабителя при провале.
	Sentence time.Duration
}

// Info — развёрнутое состояние бизнеса для вызывающего слоя.
type Info struct {
	Name     string
	Industry string
	Level    int
	Vault    int64
	MaxVault int64
	// Эффективная дневная ставка на сегодня.
	DailyRate float64
	// Прибыль, начисленная при этом обращении.
	Accrued             int64
	TradingBonusPct     float64
	ManufacturingStreak int
	PenaltyPct          float64
	Items               []string
}
