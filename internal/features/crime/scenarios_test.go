package crime

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/city-bot/internal/features/settings"
)

func TestPickScenarioWeighted(t *testing.T) {
	heavy := &Scenario{ID: "heavy", Weight: 99}
	light := &Scenario{ID: "light", Weight: 1}
	scenarios := []*Scenario{heavy, light}

	rng := rand.New(rand.NewSource(1))
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		counts[PickScenario(scenarios, rng).ID]++
	}

	// При весах 99:1 тяжёлый сценарий обязан доминировать.
	assert.Greater(t, counts["heavy"], 900)
	assert.Positive(t, counts["light"])
}

func TestPickScenarioEdgeCases(t *testing.T) {
	assert.Nil(t, PickScenario(nil, rand.New(rand.NewSource(1))))

	only := &Scenario{ID: "only", Weight: 0} // неположительный вес участвует как 1
	assert.Equal(t, only, PickScenario([]*Scenario{only}, rand.New(rand.NewSource(1))))
}

func TestBuiltinScenariosSane(t *testing.T) {
	scenarios := BuiltinScenarios()
	require.NotEmpty(t, scenarios)

	seen := map[string]bool{}
	for _, sc := range scenarios {
		assert.False(t, seen[sc.ID], "дубликат сценария %s", sc.ID)
		seen[sc.ID] = true

		assert.Positive(t, sc.Weight)
		assert.LessOrEqual(t, sc.MinReward, sc.MaxReward)
		assert.Greater(t, sc.SuccessRate, 0.0)
		assert.LessOrEqual(t, sc.SuccessRate, 1.0)
		assert.NotEmpty(t, sc.SuccessText)
		assert.NotEmpty(t, sc.FailText)
	}
}

func TestRollEvents(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		events := RollEvents(settings.CrimeBankHeist, rng)

		// Первое событие гарантировано, всего не больше трёх.
		require.NotEmpty(t, events)
		assert.LessOrEqual(t, len(events), 3)

		// Без повторов.
		texts := map[string]bool{}
		for _, ev := range events {
			assert.False(t, texts[ev.Text])
			texts[ev.Text] = true
		}
	}
}

func TestRollEventsUnknownType(t *testing.T) {
	assert.Nil(t, RollEvents("unknown", rand.New(rand.NewSource(1))))
}
