package crime

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBailCost(t *testing.T) {
	assert.Equal(t, int64(10), BailCost(30*time.Minute, 0.35))
	assert.Equal(t, int64(42), BailCost(2*time.Hour, 0.35))
	assert.Zero(t, BailCost(0, 0.35))
	assert.Zero(t, BailCost(-time.Minute, 0.35))
}

func TestBailCostMonotone(t *testing.T) {
	// Чем меньше осталось сидеть, тем дешевле залог.
	prev := int64(-1)
	for minutes := 1; minutes <= 240; minutes++ {
		cost := BailCost(time.Duration(minutes)*time.Minute, 0.35)
		assert.GreaterOrEqual(t, cost, prev)
		prev = cost
	}
}

func TestSendToJail(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st := NewCriminalState(1, 100)
	st.AttemptedJailbreak = true
	st.ReleaseNotified = true

	effective := SendToJail(st, time.Hour, 42, now)

	assert.Equal(t, time.Hour, effective)
	assert.Equal(t, now.Add(time.Hour), st.JailUntil)
	assert.Equal(t, int64(42), st.JailChannelID)
	assert.Equal(t, time.Hour, st.OriginalSentence)
	// Новый срок — новая попытка побега и новое уведомление.
	assert.False(t, st.AttemptedJailbreak)
	assert.False(t, st.ReleaseNotified)

	assert.True(t, st.Jailed(now))
	assert.False(t, st.Jailed(now.Add(time.Hour)))
	assert.Equal(t, 30*time.Minute, st.JailRemaining(now.Add(30*time.Minute)))
}

func TestSendToJailPerkDiscount(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st := NewCriminalState(1, 100)
	st.Perks = []string{PerkJailReducer}

	effective := SendToJail(st, time.Hour, 0, now)
	assert.Equal(t, 48*time.Minute, effective)
}

func TestClearJail(t *testing.T) {
	now := time.Now()
	st := NewCriminalState(1, 100)
	SendToJail(st, time.Hour, 42, now)
	st.AttemptedJailbreak = true

	ClearJail(st)
	assert.False(t, st.Jailed(now))
	assert.Zero(t, st.JailRemaining(now))
	assert.Zero(t, st.JailChannelID)
	assert.False(t, st.AttemptedJailbreak)
}

func TestJailbreakExtension(t *testing.T) {
	extended := JailbreakExtension(time.Hour, 0.3)
	assert.Equal(t, 78*time.Minute, extended)
	assert.Zero(t, JailbreakExtension(0, 0.3))
}

func TestRollJailbreakBounds(t *testing.T) {
	var successes, failures int
	for seed := int64(0); seed < 300; seed++ {
		rng := rand.New(rand.NewSource(seed))
		success, chance, sc, events := RollJailbreak(rng)

		require.NotNil(t, sc)
		assert.GreaterOrEqual(t, chance, minEffectiveRate)
		assert.LessOrEqual(t, chance, maxEffectiveRate)
		require.NotEmpty(t, events)
		assert.LessOrEqual(t, len(events), 2)

		if success {
			successes++
		} else {
			failures++
		}
	}
	assert.Positive(t, successes)
	assert.Positive(t, failures)
}

func TestRollJailbreakReproducible(t *testing.T) {
	s1, c1, sc1, ev1 := RollJailbreak(rand.New(rand.NewSource(11)))
	s2, c2, sc2, ev2 := RollJailbreak(rand.New(rand.NewSource(11)))
	assert.Equal(t, s1, s2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, sc1, sc2)
	assert.Equal(t, ev1, ev2)
}
