package crime

import (
	"time"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/settings"
)

// RemainingCooldown возвращает остаток кулдауна по типу преступления.
// Ноль — кулдаун истёк или записи нет.
func RemainingCooldown(st *CriminalState, crimeType string, cooldown time.Duration, now time.Time) time.Duration {
	last, ok := st.Cooldowns[crimeType]
	if !ok {
		return 0
	}
	readyAt := last.Add(cooldown)
	if !now.Before(readyAt) {
		return 0
	}
	return readyAt.Sub(now)
}

// CanCommit проверяет базовую пригодность к преступлению:
// тюрьма, выключенный тип, кулдаун. Ошибка — *common.IneligibleError
// или сентинел из common.
func CanCommit(st *CriminalState, cfg *settings.CrimeConfig, now time.Time) error {
	if !cfg.Enabled {
		return common.ErrCrimeDisabled
	}
	if st.Jailed(now) {
		return common.NewIneligibleRetry("вы в тюрьме", st.JailRemaining(now))
	}
	if rem := RemainingCooldown(st, cfg.CrimeType, cfg.Cooldown, now); rem > 0 {
		return common.NewIneligibleRetry("кулдаун не истёк", rem)
	}
	return nil
}

// CanTarget проверяет допустимость цели для преступлений с жертвой.
// targetBalance — текущий баланс цели, minBalance — порог из настроек.
func CanTarget(st *CriminalState, actorID, targetID int64, targetBalance, minBalance int64) error {
	if targetID == 0 {
		return common.ErrTargetRequired
	}
	if targetID == actorID {
		return common.ErrSelfTarget
	}
	if st.LastTarget == targetID {
		return common.NewIneligible("нельзя грабить одну и ту же цель дважды подряд")
	}
	if targetBalance < minBalance {
		return common.NewIneligible("у цели слишком мало средств")
	}
	return nil
}

// RecordAction фиксирует попытку преступления: кулдаун ставится
// на момент попытки независимо от исхода, метка монотонно растёт.
func RecordAction(st *CriminalState, crimeType string, now time.Time) {
	if st.Cooldowns == nil {
		st.Cooldowns = make(map[string]time.Time)
	}
	if prev, ok := st.Cooldowns[crimeType]; ok && prev.After(now) {
		return
	}
	st.Cooldowns[crimeType] = now
}
