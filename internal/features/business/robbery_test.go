package business

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/city-bot/internal/common"
)

func TestCanRob(t *testing.T) {
	now := time.Now()
	b := &Business{Vault: 10000}
	assert.NoError(t, CanRob(b, now))

	// Слишком бедный сейф.
	poor := &Business{Vault: MinRobbableVault - 1}
	assert.True(t, common.IsIneligible(CanRob(poor, now)))

	// Суточное окно после недавней попытки.
	b.LastRobbedAt = now.Add(-time.Hour)
	err := CanRob(b, now)
	require.True(t, common.IsIneligible(err))

	var inel *common.IneligibleError
	require.ErrorAs(t, err, &inel)
	assert.InDelta(t, (23 * time.Hour).Seconds(), inel.RetryAfter.Seconds(), 1.0)

	// Ровно через сутки бизнес снова уязвим.
	b.LastRobbedAt = now.Add(-RobberyWindow)
	assert.NoError(t, CanRob(b, now))
}

func TestRobberyChance(t *testing.T) {
	base := &Business{Industry: IndustryTrading}
	assert.InDelta(t, 0.50, RobberyChance(base, 0), 1e-9)

	retail := &Business{Industry: IndustryRetail}
	assert.InDelta(t, 0.65, RobberyChance(retail, 0), 1e-9)

	guarded := &Business{Industry: IndustryRetail, Items: []string{ItemSecuritySystem}}
	assert.InDelta(t, 0.55, RobberyChance(guarded, 0), 1e-9)

	// Перки грабителя поднимают шанс.
	assert.InDelta(t, 0.55, RobberyChance(base, 0.05), 1e-9)

	// Зажим сверху.
	assert.InDelta(t, 0.95, RobberyChance(retail, 0.50), 1e-9)
}

func TestRollStealBounds(t *testing.T) {
	plain := &Business{Industry: IndustryTrading}
	factory := &Business{Industry: IndustryManufacturing, Items: []string{ItemRiskManagement}}

	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		pct := RollSteal(plain, rng)
		assert.GreaterOrEqual(t, pct, robberyMinStealPct)
		assert.LessOrEqual(t, pct, robberyMaxStealPct)

		rng = rand.New(rand.NewSource(seed))
		hard := RollSteal(factory, rng)
		// Риск-менеджмент и производство режут долю, но не ниже пола.
		assert.GreaterOrEqual(t, hard, robberyStealFloor)
		assert.Less(t, hard, pct)
	}
}

func TestStealAmount(t *testing.T) {
	b := &Business{Vault: 10000}
	assert.Equal(t, int64(1000), StealAmount(b, 0.10))

	// Премиум-сейф укрывает верхние 25% баланса.
	b.Items = []string{ItemPremiumVault}
	assert.Equal(t, int64(750), StealAmount(b, 0.10))
}

func TestInsuranceRefund(t *testing.T) {
	b := &Business{Vault: 10000}
	assert.Zero(t, InsuranceRefund(b, 1000))

	b.Items = []string{ItemVaultInsurance}
	assert.Equal(t, int64(250), InsuranceRefund(b, 1000))
}

func TestShopItemsLevelGates(t *testing.T) {
	require.Len(t, ShopItems, 4)
	for id, item := range ShopItems {
		assert.Equal(t, id, item.ID)
		assert.Positive(t, item.Cost)
		assert.GreaterOrEqual(t, item.MinLevel, 1)
		assert.LessOrEqual(t, item.MinLevel, MaxLevel)
	}
	assert.Equal(t, 3, ShopItems[ItemPremiumVault].MinLevel)
	assert.Equal(t, 2, ShopItems[ItemVaultInsurance].MinLevel)
}
