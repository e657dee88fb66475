package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/city-bot/internal/common"
)

func TestCrimeConfigValidate(t *testing.T) {
	valid := func() *CrimeConfig {
		return &CrimeConfig{
			GuildID:     1,
			CrimeType:   CrimePickpocket,
			MinReward:   100,
			MaxReward:   500,
			SuccessRate: 0.5,
			Cooldown:    5 * time.Minute,
			JailTime:    30 * time.Minute,
			FineMult:    0.35,
			MinStealPct: 0.01,
			MaxStealPct: 0.10,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*CrimeConfig){
		"rate above one":      func(c *CrimeConfig) { c.SuccessRate = 1.5 },
		"rate negative":       func(c *CrimeConfig) { c.SuccessRate = -0.1 },
		"max below min":       func(c *CrimeConfig) { c.MaxReward = 50 },
		"negative min reward": func(c *CrimeConfig) { c.MinReward = -1; c.MaxReward = 0 },
		"negative cooldown":   func(c *CrimeConfig) { c.Cooldown = -time.Minute },
		"negative jail":       func(c *CrimeConfig) { c.JailTime = -time.Second },
		"negative fine":       func(c *CrimeConfig) { c.FineMult = -0.1 },
		"steal pct above one": func(c *CrimeConfig) { c.MaxStealPct = 1.2 },
		"steal min above max": func(c *CrimeConfig) { c.MinStealPct = 0.5 },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(c)
		assert.ErrorIs(t, c.Validate(), common.ErrInvalidConfig, name)
	}
}

func TestGlobalSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultGlobalSettings(1).Validate())

	cases := map[string]func(*GlobalSettings){
		"negative jail time":    func(g *GlobalSettings) { g.DefaultJailTime = -time.Minute },
		"negative fine mult":    func(g *GlobalSettings) { g.DefaultFineMult = -1 },
		"negative bail mult":    func(g *GlobalSettings) { g.BailCostMult = -0.1 },
		"negative min balance":  func(g *GlobalSettings) { g.MinStealBalance = -1 },
		"negative steal cap":    func(g *GlobalSettings) { g.MaxStealAmount = -1 },
		"penalty above one":     func(g *GlobalSettings) { g.JailbreakPenaltyPct = 1.5 },
		"negative notify price": func(g *GlobalSettings) { g.NotifyCost = -10 },
	}
	for name, mutate := range cases {
		g := DefaultGlobalSettings(1)
		mutate(g)
		assert.ErrorIs(t, g.Validate(), common.ErrInvalidConfig, name)
	}
}

func TestDefaultCrimeConfigs(t *testing.T) {
	configs := DefaultCrimeConfigs(42)
	require.Len(t, configs, 6)

	byType := make(map[string]*CrimeConfig, len(configs))
	for _, c := range configs {
		require.NoError(t, c.Validate(), c.CrimeType)
		assert.Equal(t, int64(42), c.GuildID)
		assert.True(t, c.Enabled, c.CrimeType)
		byType[c.CrimeType] = c
	}

	pickpocket := byType[CrimePickpocket]
	require.NotNil(t, pickpocket)
	assert.True(t, pickpocket.RequiresTarget)
	assert.Equal(t, int64(150), pickpocket.MinReward)
	assert.Equal(t, int64(500), pickpocket.MaxReward)
	assert.InDelta(t, 0.6, pickpocket.SuccessRate, 1e-9)
	assert.Equal(t, 5*time.Minute, pickpocket.Cooldown)

	heist := byType[CrimeBankHeist]
	require.NotNil(t, heist)
	assert.False(t, heist.RequiresTarget)
	assert.Equal(t, 24*time.Hour, heist.Cooldown)

	robBusiness := byType[CrimeRobBusiness]
	require.NotNil(t, robBusiness)
	assert.Equal(t, 12*time.Hour, robBusiness.Cooldown)
	assert.Equal(t, time.Hour, robBusiness.JailTime)
}
