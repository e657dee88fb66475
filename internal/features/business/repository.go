// Package business — repository.go хранит бизнесы в таблице businesses.
// Штрафы розницы и предметы лежат в JSONB, временные метки —
// unix-секундами (0 = не было).
package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/city-bot/internal/common"
)

// Repository работает с таблицей businesses.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий бизнесов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const businessColumns = `guild_id, user_id, name, industry, level, vault,
	last_accrual, trading_bonus_pct, last_rollover_day,
	manufacturing_streak, last_withdrawal, retail_penalties,
	last_robbed_at, items, created_at`

// Get возвращает бизнес пользователя или common.ErrNoBusiness.
func (r *Repository) Get(ctx context.Context, guildID, userID int64) (*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE guild_id = $1 AND user_id = $2`
	b, err := scanBusiness(r.db.QueryRow(ctx, query, guildID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNoBusiness
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения бизнеса: %w", err)
	}
	return b, nil
}

// Create вставляет новый бизнес. common.ErrBusinessExists, если уже есть.
func (r *Repository) Create(ctx context.Context, b *Business) error {
	penalties, items, err := marshalBlobs(b)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		b.GuildID, b.UserID, b.Name, b.Industry, b.Level, b.Vault,
		unixOrZero(b.LastAccrual), b.TradingBonusPct, b.LastRolloverDay,
		b.ManufacturingStreak, unixOrZero(b.LastWithdrawal), penalties,
		unixOrZero(b.LastRobbedAt), items, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания бизнеса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrBusinessExists
	}
	return nil
}

// Save сохраняет бизнес целиком. Вызывающий слой держит мьютекс
// владельца, поэтому потерянных обновлений нет.
func (r *Repository) Save(ctx context.Context, b *Business) error {
	penalties, items, err := marshalBlobs(b)
	if err != nil {
		return err
	}
	query := `
		UPDATE businesses SET
			name = $3, industry = $4, level = $5, vault = $6,
			last_accrual = $7, trading_bonus_pct = $8, last_rollover_day = $9,
			manufacturing_streak = $10, last_withdrawal = $11,
			retail_penalties = $12, last_robbed_at = $13, items = $14
		WHERE guild_id = $1 AND user_id = $2
	`
	tag, err := r.db.Exec(ctx, query,
		b.GuildID, b.UserID, b.Name, b.Industry, b.Level, b.Vault,
		unixOrZero(b.LastAccrual), b.TradingBonusPct, b.LastRolloverDay,
		b.ManufacturingStreak, unixOrZero(b.LastWithdrawal), penalties,
		unixOrZero(b.LastRobbedAt), items,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения бизнеса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNoBusiness
	}
	return nil
}

// List возвращает все бизнесы (для суточного пересчёта).
func (r *Repository) List(ctx context.Context) ([]*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses ORDER BY guild_id, user_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки бизнесов: %w", err)
	}
	defer rows.Close()

	var out []*Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения бизнеса: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete удаляет бизнес пользователя.
func (r *Repository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM businesses WHERE guild_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("ошибка удаления бизнеса: %w", err)
	}
	return nil
}

// WipeGuild удаляет все бизнесы гильдии.
func (r *Repository) WipeGuild(ctx context.Context, guildID int64) error {
	query := `DELETE FROM businesses WHERE guild_id = $1`
	if _, err := r.db.Exec(ctx, query, guildID); err != nil {
		return fmt.Errorf("ошибка вайпа бизнесов: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (*Business, error) {
	var (
		b              Business
		lastAccrual    int64
		lastWithdrawal int64
		lastRobbed     int64
		penaltiesRaw   []byte
		itemsRaw       []byte
	)
	err := row.Scan(
		&b.GuildID, &b.UserID, &b.Name, &b.Industry, &b.Level, &b.Vault,
		&lastAccrual, &b.TradingBonusPct, &b.LastRolloverDay,
		&b.ManufacturingStreak, &lastWithdrawal, &penaltiesRaw,
		&lastRobbed, &itemsRaw, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAccrual > 0 {
		b.LastAccrual = time.Unix(lastAccrual, 0)
	}
	if lastWithdrawal > 0 {
		b.LastWithdrawal = time.Unix(lastWithdrawal, 0)
	}
	if lastRobbed > 0 {
		b.LastRobbedAt = time.Unix(lastRobbed, 0)
	}
	if len(penaltiesRaw) > 0 {
		if err := json.Unmarshal(penaltiesRaw, &b.RetailPenalties); err != nil {
			return nil, err
		}
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &b.Items); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func marshalBlobs(b *Business) (penalties, items []byte, err error) {
	penalties, err = json.Marshal(b.RetailPenalties)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка сериализации штрафов: %w", err)
	}
	items, err = json.Marshal(b.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка сериализации предметов: %w", err)
	}
	return penalties, items, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
