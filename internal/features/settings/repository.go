// Package settings — repository.go выполняет операции с таблицами
// guild_settings и crime_configs. Длительности хранятся в секундах.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами настроек.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий настроек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetGlobal возвращает глобальные настройки гильдии
// или pgx.ErrNoRows, если гильдия ещё не инициализирована.
func (r *Repository) GetGlobal(ctx context.Context, guildID int64) (*GlobalSettings, error) {
	query := `
		SELECT guild_id, default_jail_seconds, default_fine_mult, allow_bail,
		       bail_cost_mult, min_steal_balance, max_steal_amount,
		       jailbreak_penalty_pct, notify_cost, notify_cost_enabled
		FROM guild_settings WHERE guild_id = $1
	`
	var (
		g           GlobalSettings
		jailSeconds int64
	)
	err := r.db.QueryRow(ctx, query, guildID).Scan(
		&g.GuildID, &jailSeconds, &g.DefaultFineMult, &g.AllowBail,
		&g.BailCostMult, &g.MinStealBalance, &g.MaxStealAmount,
		&g.JailbreakPenaltyPct, &g.NotifyCost, &g.NotifyCostEnabled,
	)
	if err != nil {
		return nil, err
	}
	g.DefaultJailTime = time.Duration(jailSeconds) * time.Second
	return &g, nil
}

// SaveGlobal сохраняет глобальные настройки (upsert).
func (r *Repository) SaveGlobal(ctx context.Context, g *GlobalSettings) error {
	query := `
		INSERT INTO guild_settings (
			guild_id, default_jail_seconds, default_fine_mult, allow_bail,
			bail_cost_mult, min_steal_balance, max_steal_amount,
			jailbreak_penalty_pct, notify_cost, notify_cost_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (guild_id) DO UPDATE SET
			default_jail_seconds = $2, default_fine_mult = $3, allow_bail = $4,
			bail_cost_mult = $5, min_steal_balance = $6, max_steal_amount = $7,
			jailbreak_penalty_pct = $8, notify_cost = $9, notify_cost_enabled = $10,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		g.GuildID, int64(g.DefaultJailTime.Seconds()), g.DefaultFineMult, g.AllowBail,
		g.BailCostMult, g.MinStealBalance, g.MaxStealAmount,
		g.JailbreakPenaltyPct, g.NotifyCost, g.NotifyCostEnabled,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения настроек гильдии: %w", err)
	}
	return nil
}

// GetCrime возвращает конфиг одного преступления.
func (r *Repository) GetCrime(ctx context.Context, guildID int64, crimeType string) (*CrimeConfig, error) {
	query := `
		SELECT guild_id, crime_type, requires_target, min_reward, max_reward,
		       success_rate, cooldown_seconds, jail_seconds, risk, enabled,
		       fine_mult, min_steal_pct, max_steal_pct
		FROM crime_configs WHERE guild_id = $1 AND crime_type = $2
	`
	return r.scanCrime(r.db.QueryRow(ctx, query, guildID, crimeType))
}

// ListCrimes возвращает все конфиги преступлений гильдии.
func (r *Repository) ListCrimes(ctx context.Context, guildID int64) ([]*CrimeConfig, error) {
	query := `
		SELECT guild_id, crime_type, requires_target, min_reward, max_reward,
		       success_rate, cooldown_seconds, jail_seconds, risk, enabled,
		       fine_mult, min_steal_pct, max_steal_pct
		FROM crime_configs WHERE guild_id = $1
		ORDER BY crime_type
	`
	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигов преступлений: %w", err)
	}
	defer rows.Close()

	var configs []*CrimeConfig
	for rows.Next() {
		c, err := r.scanCrime(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// SaveCrime сохраняет конфиг преступления (upsert).
func (r *Repository) SaveCrime(ctx context.Context, c *CrimeConfig) error {
	query := `
		INSERT INTO crime_configs (
			guild_id, crime_type, requires_target, min_reward, max_reward,
			success_rate, cooldown_seconds, jail_seconds, risk, enabled,
			fine_mult, min_steal_pct, max_steal_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (guild_id, crime_type) DO UPDATE SET
			requires_target = $3, min_reward = $4, max_reward = $5,
			success_rate = $6, cooldown_seconds = $7, jail_seconds = $8,
			risk = $9, enabled = $10, fine_mult = $11,
			min_steal_pct = $12, max_steal_pct = $13, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		c.GuildID, c.CrimeType, c.RequiresTarget, c.MinReward, c.MaxReward,
		c.SuccessRate, int64(c.Cooldown.Seconds()), int64(c.JailTime.Seconds()),
		c.Risk, c.Enabled, c.FineMult, c.MinStealPct, c.MaxStealPct,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения конфига преступления: %w", err)
	}
	return nil
}

// EnsureGlobal создаёт запись глобальных настроек, если её ещё нет.
// Существующая запись (в том числе изменённая админами) не трогается.
func (r *Repository) EnsureGlobal(ctx context.Context, g *GlobalSettings) error {
	query := `
		INSERT INTO guild_settings (
			guild_id, default_jail_seconds, default_fine_mult, allow_bail,
			bail_cost_mult, min_steal_balance, max_steal_amount,
			jailbreak_penalty_pct, notify_cost, notify_cost_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (guild_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		g.GuildID, int64(g.DefaultJailTime.Seconds()), g.DefaultFineMult, g.AllowBail,
		g.BailCostMult, g.MinStealBalance, g.MaxStealAmount,
		g.JailbreakPenaltyPct, g.NotifyCost, g.NotifyCostEnabled,
	)
	if err != nil {
		return fmt.Errorf("ошибка инициализации настроек гильдии: %w", err)
	}
	return nil
}

// EnsureCrime создаёт конфиг преступления, если его ещё нет.
func (r *Repository) EnsureCrime(ctx context.Context, c *CrimeConfig) error {
	query := `
		INSERT INTO crime_configs (
			guild_id, crime_type, requires_target, min_reward, max_reward,
			success_rate, cooldown_seconds, jail_seconds, risk, enabled,
			fine_mult, min_steal_pct, max_steal_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (guild_id, crime_type) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		c.GuildID, c.CrimeType, c.RequiresTarget, c.MinReward, c.MaxReward,
		c.SuccessRate, int64(c.Cooldown.Seconds()), int64(c.JailTime.Seconds()),
		c.Risk, c.Enabled, c.FineMult, c.MinStealPct, c.MaxStealPct,
	)
	if err != nil {
		return fmt.Errorf("ошибка инициализации конфига преступления: %w", err)
	}
	return nil
}

// WipeGuild сбрасывает все настройки гильдии (только при полном вайпе).
func (r *Repository) WipeGuild(ctx context.Context, guildID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM crime_configs WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("ошибка удаления конфигов: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM guild_settings WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("ошибка удаления настроек: %w", err)
	}
	return tx.Commit(ctx)
}

// IsNotFound проверяет ошибку «запись не найдена».
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanCrime(row rowScanner) (*CrimeConfig, error) {
	var (
		c               CrimeConfig
		cooldownSeconds int64
		jailSeconds     int64
	)
	err := row.Scan(
		&c.GuildID, &c.CrimeType, &c.RequiresTarget, &c.MinReward, &c.MaxReward,
		&c.SuccessRate, &cooldownSeconds, &jailSeconds, &c.Risk, &c.Enabled,
		&c.FineMult, &c.MinStealPct, &c.MaxStealPct,
	)
	if err != nil {
		return nil, err
	}
	c.Cooldown = time.Duration(cooldownSeconds) * time.Second
	c.JailTime = time.Duration(jailSeconds) * time.Second
	return &c, nil
}
