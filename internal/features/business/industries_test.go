package business

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManufacturing(vault int64, last time.Time) *Business {
	return &Business{
		GuildID:     1,
		UserID:      100,
		Name:        "Завод",
		Industry:    IndustryManufacturing,
		Level:       1,
		Vault:       vault,
		LastAccrual: last,
	}
}

func TestAccrueManufacturingThreeHours(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newManufacturing(10000, start)

	accrued := Accrue(b, start.Add(3*time.Hour))

	// Ставка ~1% в день, за час floor(10000×0.0099/24) = 4 кредита.
	assert.Equal(t, int64(12), accrued)
	assert.Equal(t, int64(10012), b.Vault)
	assert.Equal(t, start.Add(3*time.Hour), b.LastAccrual)
}

func TestAccruePartialHourCarriesOver(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newManufacturing(10000, start)

	assert.Zero(t, Accrue(b, start.Add(59*time.Minute)))
	assert.Equal(t, start, b.LastAccrual)

	// Полтора часа: начисляется один час, полчаса переносятся.
	accrued := Accrue(b, start.Add(90*time.Minute))
	assert.Equal(t, int64(4), accrued)
	assert.Equal(t, start.Add(time.Hour), b.LastAccrual)
}

func TestAccrueRespectsVaultLimit(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newManufacturing(MaxVault(1)-2, start)
	b.ManufacturingStreak = 20

	accrued := Accrue(b, start.Add(10*time.Hour))

	assert.Equal(t, int64(2), accrued)
	assert.Equal(t, MaxVault(1), b.Vault)
}

func TestDailyFluctuationDeterministic(t *testing.T) {
	a := DailyFluctuation(1, 100, "2025-03-10", 1)
	b := DailyFluctuation(1, 100, "2025-03-10", 1)
	assert.Equal(t, a, b)

	other := DailyFluctuation(1, 100, "2025-03-11", 1)
	assert.NotEqual(t, a, other)
}

func TestDailyFluctuationRange(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		span := 0.10 + 0.05*float64(level-1)
		for day := 1; day <= 28; day++ {
			f := DailyFluctuation(42, 7, time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), level)
			assert.GreaterOrEqual(t, f, -span)
			assert.LessOrEqual(t, f, span)
		}
	}
}

func TestTradingBonusAccumulatesAndResets(t *testing.T) {
	b := &Business{GuildID: 5, UserID: 9, Industry: IndustryTrading, Level: 1}

	// Подбираем три дня с положительным колебанием подряд.
	now := time.Now()
	positive := 0
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for positive < 3 {
		key := day.Format("2006-01-02")
		if DailyFluctuation(b.GuildID, b.UserID, key, b.Level) > 0 {
			DailyRollover(b, key, now)
			positive++
		}
		day = day.Add(24 * time.Hour)
	}
	assert.InDelta(t, 0.03, b.TradingBonusPct, 1e-9)

	// Первый же неположительный день обнуляет бонус.
	for {
		key := day.Format("2006-01-02")
		if DailyFluctuation(b.GuildID, b.UserID, key, b.Level) <= 0 {
			DailyRollover(b, key, now)
			break
		}
		day = day.Add(24 * time.Hour)
	}
	assert.Zero(t, b.TradingBonusPct)
}

func TestTradingBonusCapped(t *testing.T) {
	b := &Business{GuildID: 5, UserID: 9, Industry: IndustryTrading, Level: 1, TradingBonusPct: 0.095}

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for {
		key := day.Format("2006-01-02")
		if DailyFluctuation(b.GuildID, b.UserID, key, b.Level) > 0 {
			DailyRollover(b, key, time.Now())
			break
		}
		day = day.Add(24 * time.Hour)
	}
	assert.InDelta(t, maxTradingBonus, b.TradingBonusPct, 1e-9)
}

func TestDailyRolloverIdempotentPerDay(t *testing.T) {
	b := &Business{GuildID: 5, UserID: 9, Industry: IndustryTrading, Level: 1}

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var key string
	for {
		key = day.Format("2006-01-02")
		if DailyFluctuation(b.GuildID, b.UserID, key, b.Level) > 0 {
			break
		}
		day = day.Add(24 * time.Hour)
	}

	DailyRollover(b, key, time.Now())
	DailyRollover(b, key, time.Now())
	assert.InDelta(t, 0.01, b.TradingBonusPct, 1e-9)
}

func TestManufacturingRolloverIdempotentPerDay(t *testing.T) {
	now := time.Now()
	b := &Business{GuildID: 1, UserID: 2, Industry: IndustryManufacturing, Level: 2}

	DailyRollover(b, "2025-03-10", now)
	DailyRollover(b, "2025-03-10", now)
	assert.Equal(t, 1, b.ManufacturingStreak)
}

func TestManufacturingStreakRollover(t *testing.T) {
	now := time.Now()
	b := &Business{GuildID: 1, UserID: 2, Industry: IndustryManufacturing, Level: 2}

	DailyRollover(b, "2025-03-10", now)
	DailyRollover(b, "2025-03-11", now)
	assert.Equal(t, 2, b.ManufacturingStreak)

	// День со снятием серию не продлевает.
	b.LastWithdrawal = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC).In(time.UTC)
	withdrawDay := DayKey(b.LastWithdrawal)
	DailyRollover(b, withdrawDay, now)
	assert.Equal(t, 2, b.ManufacturingStreak)
}

func TestRetailRateWithPenalties(t *testing.T) {
	now := time.Now()
	b := &Business{
		GuildID:  1,
		UserID:   2,
		Industry: IndustryRetail,
		Level:    2,
		RetailPenalties: []RetailPenalty{
			{Pct: 0.05, ExpiresAt: now.Add(time.Hour)},
			{Pct: 0.05, ExpiresAt: now.Add(-time.Minute)}, // истёк
		},
	}

	rate := EffectiveDailyRate(b, DayKey(now), now)
	expected := BaseRate(2)*1.35 - 0.05
	require.Greater(t, expected, 0.0)
	assert.InDelta(t, expected, rate, 1e-9)
}

func TestRetailRateClampedAtZero(t *testing.T) {
	now := time.Now()
	b := &Business{
		GuildID:  1,
		UserID:   2,
		Industry: IndustryRetail,
		Level:    1,
		RetailPenalties: []RetailPenalty{
			{Pct: 0.05, ExpiresAt: now.Add(time.Hour)},
			{Pct: 0.05, ExpiresAt: now.Add(time.Hour)},
			{Pct: 0.05, ExpiresAt: now.Add(time.Hour)},
		},
	}
	assert.Zero(t, EffectiveDailyRate(b, DayKey(now), now))
}

func TestPrunePenalties(t *testing.T) {
	now := time.Now()
	b := &Business{
		RetailPenalties: []RetailPenalty{
			{Pct: 0.05, ExpiresAt: now.Add(-time.Hour)},
			{Pct: 0.05, ExpiresAt: now.Add(time.Hour)},
		},
	}
	b.PrunePenalties(now)
	require.Len(t, b.RetailPenalties, 1)
	assert.True(t, b.RetailPenalties[0].ExpiresAt.After(now))
}

func TestLevelTable(t *testing.T) {
	assert.Equal(t, int64(37500), MaxVault(1))
	assert.Equal(t, int64(100000), MaxVault(2))
	assert.Equal(t, int64(250000), MaxVault(3))
	assert.Equal(t, int64(600000), MaxVault(4))

	assert.InDelta(t, 0.0100, BaseRate(1), 1e-9)
	assert.InDelta(t, 0.0200, BaseRate(4), 1e-9)

	// Уровни за пределами таблицы зажимаются.
	assert.Equal(t, MaxVault(1), MaxVault(0))
	assert.Equal(t, MaxVault(4), MaxVault(9))
}
