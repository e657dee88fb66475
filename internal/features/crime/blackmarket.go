// Package crime — blackmarket.go описывает предметы чёрного рынка.
// Перки постоянные: один раз купил — эффект действует всегда.
// Эффекты: сдвиг шанса успеха, защита от целевых преступлений,
// скидка на срок, разблокировка уведомлений о выходе.
package crime

// Идентификаторы перков.
const (
	PerkNotify      = "notify_ping"
	PerkJailReducer = "jail_reducer"
	PerkLuckyCharm  = "lucky_charm"
	PerkBodyguard   = "bodyguard"
)

// PerkItem — предмет чёрного рынка.
type PerkItem struct {
	ID          string
	Name        string
	Cost        int64
	Description string

	// Аддитивный бонус к шансу успеха преступлений владельца.
	SuccessBonus float64
	// Вычитается из шанса того, кто грабит владельца.
	DefenseBonus float64
	// Множитель срока заключения (1 = без скидки, 0.8 = −20%).
	SentenceFactor float64
	// Предмет разблокирует уведомления о выходе из тюрьмы.
	UnlocksNotify bool
}

// BlackmarketItems — все предметы чёрного рынка по идентификатору.
var BlackmarketItems = map[string]PerkItem{
	PerkNotify: {
		ID:            PerkNotify,
		Name:          "Уведомление о выходе",
		Cost:          10000,
		Description:   "Получайте пинг, когда срок заключения закончится",
		UnlocksNotify: true,
	},
	PerkJailReducer: {
		ID:             PerkJailReducer,
		Name:           "Смягчение приговора",
		Cost:           20000,
		Description:    "Все сроки заключения короче на 20%",
		SentenceFactor: 0.8,
	},
	PerkLuckyCharm: {
		ID:           PerkLuckyCharm,
		Name:         "Счастливый талисман",
		Cost:         15000,
		Description:  "+5% к шансу успеха любого преступления",
		SuccessBonus: 0.05,
	},
	PerkBodyguard: {
		ID:           PerkBodyguard,
		Name:         "Телохранитель",
		Cost:         25000,
		Description:  "−5% к шансу тех, кто пытается вас ограбить",
		DefenseBonus: 0.05,
	},
}

// SuccessBonus суммирует аддитивные бонусы перков к шансу успеха.
func SuccessBonus(perks []string) float64 {
	var bonus float64
	for _, id := range perks {
		if item, ok := BlackmarketItems[id]; ok {
			bonus += item.SuccessBonus
		}
	}
	return bonus
}

// DefenseBonus суммирует защитные бонусы перков цели.
func DefenseBonus(perks []string) float64 {
	var bonus float64
	for _, id := range perks {
		if item, ok := BlackmarketItems[id]; ok {
			bonus += item.DefenseBonus
		}
	}
	return bonus
}

// SentenceFactor возвращает множитель срока для набора перков.
// Скидки перемножаются; пол нуля гарантирован неотрицательными множителями.
func SentenceFactor(perks []string) float64 {
	factor := 1.0
	for _, id := range perks {
		if item, ok := BlackmarketItems[id]; ok && item.SentenceFactor > 0 {
			factor *= item.SentenceFactor
		}
	}
	return factor
}
