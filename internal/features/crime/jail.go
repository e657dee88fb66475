// Package crime — jail.go: тюремная механика.
// Посадка, залог, побег. Залог считается от остатка срока,
// поэтому дешевеет с каждой минутой отсидки.
package crime

import (
	"math/rand"
	"time"
)

// BailCost — стоимость залога: множитель × остаток срока в минутах,
// округление вниз. За ноль оставшихся минут платить нечего.
func BailCost(remaining time.Duration, costMult float64) int64 {
	minutes := remaining.Minutes()
	if minutes <= 0 {
		return 0
	}
	cost := int64(costMult * minutes)
	if cost < 0 {
		return 0
	}
	return cost
}

// SendToJail сажает пользователя: применяет перковую скидку
// к сроку, запоминает канал для уведомления и сбрасывает
// флаг попытки побега.
func SendToJail(st *CriminalState, sentence time.Duration, channelID int64, now time.Time) time.Duration {
	effective := mulDuration(sentence, SentenceFactor(st.Perks))
	if effective < 0 {
		effective = 0
	}
	st.JailUntil = now.Add(effective)
	st.JailChannelID = channelID
	st.OriginalSentence = effective
	st.AttemptedJailbreak = false
	st.ReleaseNotified = false
	return effective
}

// ClearJail освобождает пользователя, не трогая статистику.
func ClearJail(st *CriminalState) {
	st.JailUntil = time.Time{}
	st.JailChannelID = 0
	st.OriginalSentence = 0
	st.AttemptedJailbreak = false
}

// JailbreakScenario — способ побега со своим базовым шансом.
type JailbreakScenario struct {
	ID         string
	BaseChance float64
	Attempt    string
	Success    string
	Fail       string
}

// JailbreakEvent — событие по ходу побега, сдвигающее шанс.
type JailbreakEvent struct {
	Text        string
	ChanceShift float64
}

var jailbreakScenarios = []*JailbreakScenario{
	{
		ID: "tunnel", BaseChance: 0.35,
		Attempt: "Вы ковыряете стену ложкой уже третью ночь...",
		Success: "Тоннель вывел вас за периметр. Свобода!",
		Fail:    "Тоннель вывел вас в кабинет начальника тюрьмы.",
	},
	{
		ID: "guard_bribe", BaseChance: 0.40,
		Attempt: "Вы предлагаете охраннику посмотреть в другую сторону...",
		Success: "Охранник оказался сговорчивым. Ворота открыты.",
		Fail:    "Охранник взял деньги и сдал вас начальству.",
	},
	{
		ID: "laundry_cart", BaseChance: 0.30,
		Attempt: "Вы прячетесь в тележке с грязным бельём...",
		Success: "Тележку выкатили прямо за ворота.",
		Fail:    "Бельё повезли не в прачечную, а в карцер.",
	},
	{
		ID: "riot_cover", BaseChance: 0.25,
		Attempt: "В столовой начинается бунт, вы пользуетесь суматохой...",
		Success: "Пока все смотрели на драку, вы ушли через кухню.",
		Fail:    "Вас записали в зачинщики бунта.",
	},
	{
		ID: "visitor_swap", BaseChance: 0.30,
		Attempt: "Ваш сообщник на свидании удивительно на вас похож...",
		Success: "Охрана выпустила не того. Вы уже в городе.",
		Fail:    "Сходство оказалось не таким уж удивительным.",
	},
}

var jailbreakEvents = []JailbreakEvent{
	{Text: "Сегодня дежурит сонная смена", ChanceShift: 0.10},
	{Text: "Прожектор как назло светит в вашу сторону", ChanceShift: -0.10},
	{Text: "Сокамерник отвлекает охрану", ChanceShift: 0.05},
	{Text: "Внеплановая перекличка", ChanceShift: -0.05},
	{Text: "Гроза заглушает любой шум", ChanceShift: 0.10},
}

// RollJailbreak разыгрывает побег: случайный сценарий, до двух
// событий, итоговый шанс зажат в [0.05, 0.95]. Продление срока
// при провале считает вызывающий слой от остатка.
func RollJailbreak(rng *rand.Rand) (success bool, chance float64, sc *JailbreakScenario, events []JailbreakEvent) {
	sc = jailbreakScenarios[rng.Intn(len(jailbreakScenarios))]
	chance = sc.BaseChance

	pool := make([]JailbreakEvent, len(jailbreakEvents))
	copy(pool, jailbreakEvents)
	i := rng.Intn(len(pool))
	events = append(events, pool[i])
	pool = append(pool[:i], pool[i+1:]...)
	if rng.Float64() < 0.5 {
		events = append(events, pool[rng.Intn(len(pool))])
	}
	for _, ev := range events {
		chance += ev.ChanceShift
	}

	if chance < minEffectiveRate {
		chance = minEffectiveRate
	}
	if chance > maxEffectiveRate {
		chance = maxEffectiveRate
	}
	return rng.Float64() < chance, chance, sc, events
}

// JailbreakExtension — новый остаток срока после провала побега:
// остаток × (1 + penaltyPct).
func JailbreakExtension(remaining time.Duration, penaltyPct float64) time.Duration {
	if remaining <= 0 {
		return 0
	}
	return mulDuration(remaining, 1+penaltyPct)
}
