// Package ledger — единственный владелец денежных балансов.
// models.go описывает структуры таблиц balances и transactions.
// Остальные модули никогда не меняют деньги напрямую — только
// через Debit/Credit/Transfer этого пакета.
package ledger

import "time"

// Balance — счёт пользователя в рамках одной гильдии.
type Balance struct {
	ID          int64     `db:"id"`
	GuildID     int64     `db:"guild_id"`
	UserID      int64     `db:"user_id"`
	Balance     int64     `db:"balance"`
	TotalEarned int64     `db:"total_earned"`
	TotalSpent  int64     `db:"total_spent"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction — запись одной денежной операции для истории.
type Transaction struct {
	ID              int64     `db:"id"`
	GuildID         int64     `db:"guild_id"`
	FromUserID      *int64    `db:"from_user_id"`
	ToUserID        *int64    `db:"to_user_id"`
	Amount          int64     `db:"amount"`
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций, записываемые движком города.
const (
	TxCrimeReward    = "crime_reward"
	TxCrimeSteal     = "crime_steal"
	TxCrimeFine      = "crime_fine"
	TxCrimeEvent     = "crime_event"
	TxBail           = "bail"
	TxPerkPurchase   = "perk_purchase"
	TxVaultDeposit   = "vault_deposit"
	TxVaultWithdraw  = "vault_withdraw"
	TxVaultRobbery   = "vault_robbery"
	TxBusinessItem   = "business_item"
	TxBusinessChange = "business_change"
	TxUpgrade        = "business_upgrade"
)
