// Package admin — repository.go работает с таблицами admin_audit
// и admin_password_attempts.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с админ-таблицами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// LogAction записывает админ-операцию в журнал.
func (r *Repository) LogAction(ctx context.Context, e *AuditEntry) error {
	query := `
		INSERT INTO admin_audit (guild_id, admin_id, action, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, e.GuildID, e.AdminID, e.Action, e.TargetID, e.Details)
	if err != nil {
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}
	return nil
}

// ListActions возвращает последние операции гильдии.
func (r *Repository) ListActions(ctx context.Context, guildID int64, limit int) ([]*AuditEntry, error) {
	query := `
		SELECT id, guild_id, admin_id, action, target_id, details, created_at
		FROM admin_audit
		WHERE guild_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудита: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(&e.ID, &e.GuildID, &e.AdminID, &e.Action, &e.TargetID, &e.Details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения записи аудита: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// LogAttempt записывает попытку подтверждения пароля.
func (r *Repository) LogAttempt(ctx context.Context, adminID int64, success bool) error {
	query := `INSERT INTO admin_password_attempts (admin_id, success) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, adminID, success)
	return err
}

// GetRecentAttempts возвращает количество неудачных попыток за период.
func (r *Repository) GetRecentAttempts(ctx context.Context, adminID int64, period time.Duration) (int, error) {
	since := time.Now().Add(-period)
	query := `
		SELECT COUNT(*) FROM admin_password_attempts
		WHERE admin_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, adminID, since).Scan(&count)
	return count, err
}
