// Package crime — resolver.go разрешает исход преступления.
// Чистые функции без побочных эффектов: весь случай приходит
// через *rand.Rand, что делает исходы воспроизводимыми в тестах.
package crime

import (
	"math/rand"
	"time"

	"serotonyl.ru/city-bot/internal/features/settings"
)

// Границы итогового шанса: преступление никогда не бывает
// гарантированным и никогда — безнадёжным.
const (
	minEffectiveRate = 0.05
	maxEffectiveRate = 0.95
)

// EffectiveRate считает итоговый шанс успеха: база из конфига,
// перки актёра, защита цели, события. Результат зажат в [0.05, 0.95].
func EffectiveRate(base float64, actor, defender *CriminalState, events []CrimeEvent) float64 {
	rate := base
	if actor != nil {
		rate += SuccessBonus(actor.Perks)
	}
	if defender != nil {
		rate -= DefenseBonus(defender.Perks)
	}
	for _, ev := range events {
		rate += ev.ChanceBonus
		rate -= ev.ChancePenalty
	}
	if rate < minEffectiveRate {
		return minEffectiveRate
	}
	if rate > maxEffectiveRate {
		return maxEffectiveRate
	}
	return rate
}

// ResolveInput — всё, что нужно для разрешения одного преступления.
type ResolveInput struct {
	Config *settings.CrimeConfig
	Global *settings.GlobalSettings
	Actor  *CriminalState
	// Состояние цели для целевых преступлений, иначе nil.
	Defender *CriminalState
	// Баланс цели для расчёта украденной доли.
	DefenderBalance int64
	// Сценарий для случайного преступления, иначе nil.
	Scenario *Scenario
}

// Resolve разыгрывает преступление. Суммы округляются вниз до целого
// кредита. Денежные эффекты событий (CreditsBonus/Penalty) не входят
// в Amount — их применяет вызывающий слой отдельными проводками.
func Resolve(in ResolveInput, rng *rand.Rand) Outcome {
	cfg := in.Config

	base := cfg.SuccessRate
	minReward, maxReward := cfg.MinReward, cfg.MaxReward
	jailTime := cfg.JailTime
	fineMult := cfg.FineMult

	// Сценарий случайного преступления перекрывает параметры конфига.
	if in.Scenario != nil {
		base = in.Scenario.SuccessRate
		minReward, maxReward = in.Scenario.MinReward, in.Scenario.MaxReward
		jailTime = in.Scenario.JailTime
		fineMult = in.Scenario.FineMult
	}

	events := RollEvents(cfg.CrimeType, rng)
	rate := EffectiveRate(base, in.Actor, in.Defender, events)

	out := Outcome{
		CrimeType: cfg.CrimeType,
		Rate:      rate,
		Scenario:  in.Scenario,
		Events:    events,
	}

	if rng.Float64() < rate {
		out.Success = true
		out.Amount = rollReward(cfg, in, minReward, maxReward, events, rng)
		return out
	}

	out.Fine = int64(float64(maxReward) * fineMult)
	out.JailTime = jailTime
	for _, ev := range events {
		if ev.JailMult > 0 {
			out.JailTime = mulDuration(out.JailTime, ev.JailMult)
		}
	}
	return out
}

// rollReward считает добычу успешного преступления.
func rollReward(cfg *settings.CrimeConfig, in ResolveInput, minReward, maxReward int64, events []CrimeEvent, rng *rand.Rand) int64 {
	var amount int64
	if cfg.RequiresTarget {
		pct := cfg.MinStealPct + rng.Float64()*(cfg.MaxStealPct-cfg.MinStealPct)
		amount = int64(float64(in.DefenderBalance) * pct)
	} else {
		amount = minReward
		if maxReward > minReward {
			amount += rng.Int63n(maxReward - minReward + 1)
		}
	}

	for _, ev := range events {
		if ev.RewardMult > 0 {
			amount = int64(float64(amount) * ev.RewardMult)
		}
	}
	if cfg.RequiresTarget {
		// Ни события, ни доля не крадут больше потолка и баланса цели.
		if in.Global != nil && in.Global.MaxStealAmount > 0 && amount > in.Global.MaxStealAmount {
			amount = in.Global.MaxStealAmount
		}
		if amount > in.DefenderBalance {
			amount = in.DefenderBalance
		}
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

func mulDuration(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
