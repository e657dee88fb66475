package crime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/settings"
)

func TestRemainingCooldownBoundary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st := NewCriminalState(1, 100)
	RecordAction(st, settings.CrimePickpocket, now)

	cooldown := 5 * time.Minute

	// За секунду до границы — ещё заблокировано.
	rem := RemainingCooldown(st, settings.CrimePickpocket, cooldown, now.Add(cooldown-time.Second))
	assert.Equal(t, time.Second, rem)

	// Ровно на границе — уже доступно.
	assert.Zero(t, RemainingCooldown(st, settings.CrimePickpocket, cooldown, now.Add(cooldown)))

	// Незнакомый тип — доступен всегда.
	assert.Zero(t, RemainingCooldown(st, settings.CrimeBankHeist, cooldown, now))
}

func TestRecordActionMonotonic(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st := NewCriminalState(1, 100)

	RecordAction(st, settings.CrimePickpocket, now)
	// Попытка с более ранней меткой не откатывает кулдаун.
	RecordAction(st, settings.CrimePickpocket, now.Add(-time.Hour))
	assert.Equal(t, now, st.Cooldowns[settings.CrimePickpocket])

	RecordAction(st, settings.CrimePickpocket, now.Add(time.Minute))
	assert.Equal(t, now.Add(time.Minute), st.Cooldowns[settings.CrimePickpocket])
}

func TestCanCommitBlockedReasons(t *testing.T) {
	now := time.Now()
	cfg := pickpocketConfig()
	require.NotNil(t, cfg)

	st := NewCriminalState(1, 100)
	assert.NoError(t, CanCommit(st, cfg, now))

	// Выключенный тип.
	disabled := *cfg
	disabled.Enabled = false
	assert.ErrorIs(t, CanCommit(st, &disabled, now), common.ErrCrimeDisabled)

	// Тюрьма.
	st.JailUntil = now.Add(time.Hour)
	err := CanCommit(st, cfg, now)
	require.True(t, common.IsIneligible(err))
	st.JailUntil = time.Time{}

	// Кулдаун.
	RecordAction(st, cfg.CrimeType, now)
	err = CanCommit(st, cfg, now.Add(time.Second))
	require.True(t, common.IsIneligible(err))

	var inel *common.IneligibleError
	require.ErrorAs(t, err, &inel)
	assert.Positive(t, inel.RetryAfter)
}

func TestCanTarget(t *testing.T) {
	st := NewCriminalState(1, 100)

	assert.ErrorIs(t, CanTarget(st, 100, 0, 5000, 100), common.ErrTargetRequired)
	assert.ErrorIs(t, CanTarget(st, 100, 100, 5000, 100), common.ErrSelfTarget)

	// Слишком бедная цель.
	err := CanTarget(st, 100, 200, 50, 100)
	assert.True(t, common.IsIneligible(err))

	assert.NoError(t, CanTarget(st, 100, 200, 5000, 100))

	// Две одинаковые цели подряд запрещены.
	st.LastTarget = 200
	err = CanTarget(st, 100, 200, 5000, 100)
	assert.True(t, common.IsIneligible(err))
	assert.NoError(t, CanTarget(st, 100, 300, 5000, 100))
}
