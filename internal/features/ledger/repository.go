// Package ledger — repository.go выполняет все операции с таблицами balances и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/city-bot/internal/common"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий счетов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureBalance гарантирует, что у пользователя есть запись счёта.
// Если нет — создаёт с нулевым балансом.
func (r *Repository) EnsureBalance(ctx context.Context, guildID, userID int64) error {
	query := `
		INSERT INTO balances (guild_id, user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, 0, 0, 0)
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
// Отсутствующий счёт считается нулевым.
func (r *Repository) GetBalance(ctx context.Context, guildID, userID int64) (int64, error) {
	query := `
		SELECT COALESCE(
			(SELECT balance FROM balances WHERE guild_id = $1 AND user_id = $2), 0
		)
	`
	var balance int64
	if err := r.db.QueryRow(ctx, query, guildID, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// Credit зачисляет кредиты на счёт пользователя.
// Обновление баланса и запись истории атомарны.
func (r *Repository) Credit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO balances (guild_id, user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $3, $3, 0)
		ON CONFLICT (guild_id, user_id) DO UPDATE
		SET balance = balances.balance + $3,
		    total_earned = balances.total_earned + $3,
		    updated_at = NOW()
	`, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, guildID, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Debit списывает кредиты со счёта пользователя.
// Строка счёта блокируется (FOR UPDATE); при нехватке средств
// возвращается common.ErrInsufficientFunds, баланс не меняется.
func (r *Repository) Debit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentBalance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE guild_id = $1 AND user_id = $2 FOR UPDATE
	`, guildID, userID).Scan(&currentBalance)
	if err != nil {
		return common.ErrInsufficientFunds
	}

	if currentBalance < amount {
		return common.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $3, total_spent = total_spent + $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, from_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, guildID, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Transfer переводит кредиты от одного пользователя к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
func (r *Repository) Transfer(ctx context.Context, guildID, fromUserID, toUserID, amount int64, txType, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var senderBalance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE guild_id = $1 AND user_id = $2 FOR UPDATE
	`, guildID, fromUserID).Scan(&senderBalance)
	if err != nil {
		return common.ErrInsufficientFunds
	}

	if senderBalance < amount {
		return common.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $3, total_spent = total_spent + $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, fromUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO balances (guild_id, user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $3, $3, 0)
		ON CONFLICT (guild_id, user_id) DO UPDATE
		SET balance = balances.balance + $3,
		    total_earned = balances.total_earned + $3,
		    updated_at = NOW()
	`, guildID, toUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления получателю: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, from_user_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, guildID, fromUserID, toUserID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions возвращает последние N транзакций пользователя.
func (r *Repository) GetTransactions(ctx context.Context, guildID, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, guild_id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE guild_id = $1 AND (from_user_id = $2 OR to_user_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, guildID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.GuildID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
