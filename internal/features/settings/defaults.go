// Package settings — defaults.go содержит стандартные параметры
// преступлений и глобальных настроек. Материализуются в БД при первом
// обращении гильдии и дальше правятся только админ-командами.
package settings

import "time"

// Идентификаторы типов преступлений. Закрытое множество:
// новые типы добавляются кодом, не конфигурацией.
const (
	CrimePickpocket  = "pickpocket"
	CrimeMugging     = "mugging"
	CrimeRobStore    = "rob_store"
	CrimeBankHeist   = "bank_heist"
	CrimeRandom      = "random"
	CrimeRobBusiness = "rob_business"
)

// DefaultCrimeConfigs возвращает стандартный набор преступлений для гильдии.
func DefaultCrimeConfigs(guildID int64) []*CrimeConfig {
	return []*CrimeConfig{
		{
			GuildID:        guildID,
			CrimeType:      CrimePickpocket,
			RequiresTarget: true,
			MinReward:      150,
			MaxReward:      500,
			SuccessRate:    0.6,
			Cooldown:       5 * time.Minute,
			JailTime:       30 * time.Minute,
			Risk:           "low",
			Enabled:        true,
			FineMult:       0.35,
			MinStealPct:    0.01,
			MaxStealPct:    0.10,
		},
		{
			GuildID:        guildID,
			CrimeType:      CrimeMugging,
			RequiresTarget: true,
			MinReward:      400,
			MaxReward:      1500,
			SuccessRate:    0.6,
			Cooldown:       10 * time.Minute,
			JailTime:       45 * time.Minute,
			Risk:           "medium",
			Enabled:        true,
			FineMult:       0.4,
			MinStealPct:    0.15,
			MaxStealPct:    0.25,
		},
		{
			GuildID:     guildID,
			CrimeType:   CrimeRobStore,
			MinReward:   500,
			MaxReward:   2000,
			SuccessRate: 0.5,
			Cooldown:    6 * time.Hour,
			JailTime:    45 * time.Minute,
			Risk:        "medium",
			Enabled:     true,
			FineMult:    0.4,
		},
		{
			GuildID:     guildID,
			CrimeType:   CrimeBankHeist,
			MinReward:   1500,
			MaxReward:   5000,
			SuccessRate: 0.4,
			Cooldown:    24 * time.Hour,
			JailTime:    2 * time.Hour,
			Risk:        "high",
			Enabled:     true,
			FineMult:    0.4,
		},
		{
			// Значения перекрываются выбранным сценарием
			GuildID:     guildID,
			CrimeType:   CrimeRandom,
			MinReward:   100,
			MaxReward:   3000,
			SuccessRate: 0.5,
			Cooldown:    1 * time.Hour,
			JailTime:    10 * time.Minute,
			Risk:        "random",
			Enabled:     true,
			FineMult:    0.5,
		},
		{
			GuildID:     guildID,
			CrimeType:   CrimeRobBusiness,
			MinReward:   0, // сумма определяется сейфом цели
			MaxReward:   0,
			SuccessRate: 0.5,
			Cooldown:    12 * time.Hour,
			JailTime:    1 * time.Hour,
			Risk:        "high",
			Enabled:     true,
			FineMult:    0,
		},
	}
}

// DefaultGlobalSettings возвращает стандартные глобальные настройки гильдии.
func DefaultGlobalSettings(guildID int64) *GlobalSettings {
	return &GlobalSettings{
		GuildID:             guildID,
		DefaultJailTime:     30 * time.Minute,
		DefaultFineMult:     0.5,
		AllowBail:           true,
		BailCostMult:        0.35,
		MinStealBalance:     100,
		MaxStealAmount:      1000,
		JailbreakPenaltyPct: 0.3,
		NotifyCost:          10000,
		NotifyCostEnabled:   true,
	}
}
