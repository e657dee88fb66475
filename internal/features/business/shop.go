// Package business — shop.go: магазин предметов для бизнеса.
// Предметы постоянные, каждый закрыт минимальным уровнем.
package business

// Идентификаторы предметов.
const (
	ItemSecuritySystem = "security_system"
	ItemRiskManagement = "risk_management"
	ItemPremiumVault   = "premium_vault"
	ItemVaultInsurance = "vault_insurance"
)

// ShopItem — предмет бизнес-магазина.
type ShopItem struct {
	ID          string
	Name        string
	Cost        int64
	MinLevel    int
	Description string
}

// ShopItems — все предметы магазина по идентификатору.
var ShopItems = map[string]ShopItem{
	ItemSecuritySystem: {
		ID:          ItemSecuritySystem,
		Name:        "Охранная система",
		Cost:        15000,
		MinLevel:    1,
		Description: "−10% к шансу успешного налёта на ваш бизнес",
	},
	ItemRiskManagement: {
		ID:          ItemRiskManagement,
		Name:        "Риск-менеджмент",
		Cost:        20000,
		MinLevel:    2,
		Description: "Грабители уносят на 5 п.п. меньшую долю сейфа",
	},
	ItemVaultInsurance: {
		ID:          ItemVaultInsurance,
		Name:        "Страховка сейфа",
		Cost:        30000,
		MinLevel:    2,
		Description: "25% украденного немедленно возвращается владельцу",
	},
	ItemPremiumVault: {
		ID:          ItemPremiumVault,
		Name:        "Премиум-сейф",
		Cost:        50000,
		MinLevel:    3,
		Description: "Верхние 25% баланса сейфа недоступны для кражи",
	},
}
