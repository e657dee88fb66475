// Package crime — scenarios.go содержит таблицу случайных сценариев.
// Сценарий выбирается взвешенным жребием и перекрывает параметры
// преступления "random": шанс, диапазон награды, срок, штраф.
// Помимо встроенных, гильдии могут добавлять собственные сценарии.
package crime

import (
	"math/rand"
	"time"

	"serotonyl.ru/city-bot/internal/features/settings"
)

// Уровни шанса успеха по риску.
const (
	successRateHigh   = 0.75
	successRateMedium = 0.50
	successRateLow    = 0.30
)

// Scenario — один случайный сценарий преступления.
type Scenario struct {
	ID          string
	GuildID     int64 // 0 для встроенных
	Weight      int
	Risk        string
	MinReward   int64
	MaxReward   int64
	SuccessRate float64
	JailTime    time.Duration
	FineMult    float64
	AttemptText string
	SuccessText string
	FailText    string
}

// builtinScenarios — встроенные сценарии. Вес у всех одинаковый,
// кастомные сценарии гильдии могут задавать свой.
var builtinScenarios = []*Scenario{
	{
		ID: "ice_cream_heist", Weight: 10, Risk: "low",
		MinReward: 100, MaxReward: 300, SuccessRate: successRateHigh,
		JailTime: 5 * time.Minute, FineMult: 0.3,
		AttemptText: "Вы пробираетесь в фургон с мороженым...",
		SuccessText: "Вы укатили фургон и распродали всё до последнего рожка!",
		FailText:    "Вы поскользнулись на растаявшем пломбире прямо в руки патруля.",
	},
	{
		ID: "cat_burglar", Weight: 10, Risk: "medium",
		MinReward: 400, MaxReward: 1200, SuccessRate: successRateMedium,
		JailTime: 20 * time.Minute, FineMult: 0.4,
		AttemptText: "Вы лезете по водосточной трубе особняка...",
		SuccessText: "Пентхаус обчищен, охрана так ничего и не услышала.",
		FailText:    "Сигнализация сработала, когда вы наступили на кота.",
	},
	{
		ID: "train_robbery", Weight: 10, Risk: "high",
		MinReward: 1000, MaxReward: 3000, SuccessRate: successRateLow,
		JailTime: 90 * time.Minute, FineMult: 0.5,
		AttemptText: "Вы прыгаете на крышу проходящего поезда...",
		SuccessText: "Сейф вагона вскрыт, вы спрыгнули до прибытия охраны!",
		FailText:    "Машинист затормозил, и вас сняли с крыши под аплодисменты.",
	},
	{
		ID: "casino_con", Weight: 10, Risk: "high",
		MinReward: 1200, MaxReward: 2800, SuccessRate: successRateLow,
		JailTime: 75 * time.Minute, FineMult: 0.5,
		AttemptText: "Вы садитесь за стол с краплёными картами...",
		SuccessText: "Крупье ничего не заметил — фишки ваши.",
		FailText:    "Служба безопасности вежливо проводила вас до выхода. Через полицию.",
	},
	{
		ID: "food_truck_heist", Weight: 10, Risk: "low",
		MinReward: 150, MaxReward: 400, SuccessRate: successRateHigh,
		JailTime: 8 * time.Minute, FineMult: 0.3,
		AttemptText: "Вы присматриваетесь к фургону с шаурмой...",
		SuccessText: "Выручка и запас лаваша теперь ваши.",
		FailText:    "Повар оказался бывшим борцом. Очнулись вы уже в участке.",
	},
	{
		ID: "art_gallery_heist", Weight: 10, Risk: "high",
		MinReward: 1500, MaxReward: 3000, SuccessRate: successRateLow,
		JailTime: 2 * time.Hour, FineMult: 0.5,
		AttemptText: "Вы проскальзываете в галерею между лазерными лучами...",
		SuccessText: "Подлинник ушёл скупщику за отличную цену.",
		FailText:    "Лазер вы задели локтем. Копия, которую вы несли, тоже оказалась подделкой.",
	},
	{
		ID: "candy_store_raid", Weight: 10, Risk: "low",
		MinReward: 100, MaxReward: 250, SuccessRate: successRateHigh,
		JailTime: 5 * time.Minute, FineMult: 0.3,
		AttemptText: "Вы заходите в кондитерскую через чёрный ход...",
		SuccessText: "Касса пуста, карманы полны ирисок.",
		FailText:    "Вас выдал хруст карамели под ногами.",
	},
	{
		ID: "tech_store_hack", Weight: 10, Risk: "medium",
		MinReward: 500, MaxReward: 1500, SuccessRate: successRateMedium,
		JailTime: 30 * time.Minute, FineMult: 0.4,
		AttemptText: "Вы подключаетесь к кассовому терминалу магазина электроники...",
		SuccessText: "Терминал щедро перевёл вам дневную выручку.",
		FailText:    "Антивирус оказался настоящим. Как и охранник.",
	},
	{
		ID: "jewelry_store_heist", Weight: 10, Risk: "high",
		MinReward: 1500, MaxReward: 2800, SuccessRate: successRateLow,
		JailTime: 100 * time.Minute, FineMult: 0.5,
		AttemptText: "Вы вскрываете витрину ювелирного...",
		SuccessText: "Бриллианты уже у скупщика, а вы — в тени.",
		FailText:    "Витрина была с датчиком веса. Сирену слышал весь квартал.",
	},
	{
		ID: "crypto_rug_pull", Weight: 10, Risk: "high",
		MinReward: 1000, MaxReward: 3000, SuccessRate: successRateLow,
		JailTime: 2 * time.Hour, FineMult: 0.5,
		AttemptText: "Вы запускаете токен CITYCOIN и обещаете иксы...",
		SuccessText: "Ликвидность выведена. Телеграм-чат проекта удалён.",
		FailText:    "Первым инвестором оказался прокурор.",
	},
}

// BuiltinScenarios возвращает копию списка встроенных сценариев.
func BuiltinScenarios() []*Scenario {
	out := make([]*Scenario, len(builtinScenarios))
	copy(out, builtinScenarios)
	return out
}

// PickScenario выбирает сценарий взвешенным жребием.
// Сценарии с неположительным весом участвуют с весом 1.
func PickScenario(scenarios []*Scenario, rng *rand.Rand) *Scenario {
	if len(scenarios) == 0 {
		return nil
	}

	total := 0
	for _, sc := range scenarios {
		total += scenarioWeight(sc)
	}

	roll := rng.Intn(total)
	for _, sc := range scenarios {
		roll -= scenarioWeight(sc)
		if roll < 0 {
			return sc
		}
	}
	return scenarios[len(scenarios)-1]
}

func scenarioWeight(sc *Scenario) int {
	if sc.Weight <= 0 {
		return 1
	}
	return sc.Weight
}

// CrimeEvent — случайное событие, меняющее ход преступления.
// Модификаторы шанса аддитивны, модификаторы награды и срока —
// множительные, денежные эффекты применяются сразу через счёт.
type CrimeEvent struct {
	Text           string
	ChanceBonus    float64
	ChancePenalty  float64
	RewardMult     float64 // 0 = без изменения
	JailMult       float64 // 0 = без изменения
	CreditsBonus   int64
	CreditsPenalty int64
}

// crimeEvents — пул событий по типам преступлений.
var crimeEvents = map[string][]CrimeEvent{
	settings.CrimePickpocket: {
		{Text: "Толпа на площади прикрывает вас", ChanceBonus: 0.10},
		{Text: "Цель что-то заподозрила и оглядывается", ChancePenalty: 0.10},
		{Text: "У цели оказался толстый кошелёк", RewardMult: 1.5},
		{Text: "Рядом дежурит патруль", ChancePenalty: 0.05, JailMult: 1.2},
		{Text: "Вы нашли на земле оброненную мелочь", CreditsBonus: 50},
	},
	settings.CrimeMugging: {
		{Text: "Переулок совершенно пуст", ChanceBonus: 0.10},
		{Text: "Цель занимается боксом", ChancePenalty: 0.15},
		{Text: "У цели при себе зарплата", RewardMult: 1.5},
		{Text: "Вы порвали куртку в драке", CreditsPenalty: 100},
	},
	settings.CrimeRobStore: {
		{Text: "Камеры в магазине отключены", ChanceBonus: 0.10},
		{Text: "За кассой стоит сын владельца-полицейского", ChancePenalty: 0.15, JailMult: 1.3},
		{Text: "Сегодня завезли выручку за неделю", RewardMult: 1.5},
		{Text: "Вы прихватили лотерейный билет. Выигрышный!", CreditsBonus: 200},
	},
	settings.CrimeBankHeist: {
		{Text: "Внутри работает ваш человек", ChanceBonus: 0.15},
		{Text: "Банк только что обновил сигнализацию", ChancePenalty: 0.15},
		{Text: "Хранилище оставили открытым", RewardMult: 2.0},
		{Text: "Взрывчатка сработала раньше времени", ChancePenalty: 0.10, JailMult: 1.5},
		{Text: "По дороге вы выронили часть добычи", CreditsPenalty: 300},
	},
	settings.CrimeRandom: {
		{Text: "Удача сегодня на вашей стороне", ChanceBonus: 0.10},
		{Text: "Всё идёт не по плану", ChancePenalty: 0.10},
		{Text: "Куш оказался больше ожидаемого", RewardMult: 1.3},
	},
}

// RollEvents возвращает 1-3 события для типа преступления:
// первое гарантировано, второе с шансом 50%, третье — 25%.
func RollEvents(crimeType string, rng *rand.Rand) []CrimeEvent {
	pool, ok := crimeEvents[crimeType]
	if !ok || len(pool) == 0 {
		return nil
	}

	available := make([]CrimeEvent, len(pool))
	copy(available, pool)

	var events []CrimeEvent
	take := func() {
		i := rng.Intn(len(available))
		events = append(events, available[i])
		available = append(available[:i], available[i+1:]...)
	}

	take()
	if len(available) > 0 && rng.Float64() < 0.5 {
		take()
	}
	if len(available) > 0 && rng.Float64() < 0.25 {
		take()
	}
	return events
}
