// Package crime — repository.go хранит криминальные состояния
// и пользовательские сценарии. Кулдауны и перки лежат в JSONB,
// момент выхода из тюрьмы — unix-секундами (0 = на свободе).
package crime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами criminal_states и custom_scenarios.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий криминальных состояний.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const stateColumns = `guild_id, user_id, cooldowns, jail_until, jail_channel_id,
	original_sentence_seconds, attempted_jailbreak,
	notify_unlocked, notify_on_release, release_notified,
	perks, last_target,
	total_successful, total_failed, total_fines_paid, total_earned,
	total_stolen_from, total_stolen_by, total_bail_paid, largest_heist,
	current_streak, max_streak`

// Get возвращает состояние пользователя. Отсутствующая запись —
// чистое состояние, без похода в БД за вставкой.
func (r *Repository) Get(ctx context.Context, guildID, userID int64) (*CriminalState, error) {
	query := `SELECT ` + stateColumns + ` FROM criminal_states WHERE guild_id = $1 AND user_id = $2`
	st, err := scanState(r.db.QueryRow(ctx, query, guildID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return NewCriminalState(guildID, userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения криминального состояния: %w", err)
	}
	return st, nil
}

// Save сохраняет состояние целиком (upsert). Вызывающий слой держит
// пользовательский мьютекс, поэтому потерянных обновлений нет.
func (r *Repository) Save(ctx context.Context, st *CriminalState) error {
	cooldowns, err := marshalCooldowns(st.Cooldowns)
	if err != nil {
		return fmt.Errorf("ошибка сериализации кулдаунов: %w", err)
	}
	perks, err := json.Marshal(st.Perks)
	if err != nil {
		return fmt.Errorf("ошибка сериализации перков: %w", err)
	}

	var jailUntil int64
	if !st.JailUntil.IsZero() {
		jailUntil = st.JailUntil.Unix()
	}

	query := `
		INSERT INTO criminal_states (` + stateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			cooldowns = EXCLUDED.cooldowns,
			jail_until = EXCLUDED.jail_until,
			jail_channel_id = EXCLUDED.jail_channel_id,
			original_sentence_seconds = EXCLUDED.original_sentence_seconds,
			attempted_jailbreak = EXCLUDED.attempted_jailbreak,
			notify_unlocked = EXCLUDED.notify_unlocked,
			notify_on_release = EXCLUDED.notify_on_release,
			release_notified = EXCLUDED.release_notified,
			perks = EXCLUDED.perks,
			last_target = EXCLUDED.last_target,
			total_successful = EXCLUDED.total_successful,
			total_failed = EXCLUDED.total_failed,
			total_fines_paid = EXCLUDED.total_fines_paid,
			total_earned = EXCLUDED.total_earned,
			total_stolen_from = EXCLUDED.total_stolen_from,
			total_stolen_by = EXCLUDED.total_stolen_by,
			total_bail_paid = EXCLUDED.total_bail_paid,
			largest_heist = EXCLUDED.largest_heist,
			current_streak = EXCLUDED.current_streak,
			max_streak = EXCLUDED.max_streak
	`
	_, err = r.db.Exec(ctx, query,
		st.GuildID, st.UserID, cooldowns, jailUntil, st.JailChannelID,
		int64(st.OriginalSentence/time.Second), st.AttemptedJailbreak,
		st.NotifyUnlocked, st.NotifyOnRelease, st.ReleaseNotified,
		perks, st.LastTarget,
		st.TotalSuccessful, st.TotalFailed, st.TotalFinesPaid, st.TotalEarned,
		st.TotalStolenFrom, st.TotalStolenBy, st.TotalBailPaid, st.LargestHeist,
		st.CurrentStreak, st.MaxStreak,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения криминального состояния: %w", err)
	}
	return nil
}

// ListDueNotifications возвращает состояния, чей срок истёк,
// уведомления включены и ещё не отправлены.
func (r *Repository) ListDueNotifications(ctx context.Context, now time.Time) ([]*CriminalState, error) {
	query := `
		SELECT ` + stateColumns + ` FROM criminal_states
		WHERE jail_until > 0 AND jail_until <= $1
		  AND notify_on_release AND NOT release_notified
	`
	rows, err := r.db.Query(ctx, query, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки уведомлений: %w", err)
	}
	defer rows.Close()

	var states []*CriminalState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения уведомления: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// MarkNotified помечает уведомление отправленным.
func (r *Repository) MarkNotified(ctx context.Context, guildID, userID int64) error {
	query := `UPDATE criminal_states SET release_notified = TRUE WHERE guild_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("ошибка отметки уведомления: %w", err)
	}
	return nil
}

// ClearLastTargetRefs снимает ссылки на пользователя как на последнюю
// цель у всех остальных. Нужно при вайпе, чтобы не блокировать других.
func (r *Repository) ClearLastTargetRefs(ctx context.Context, guildID, userID int64) error {
	query := `UPDATE criminal_states SET last_target = 0 WHERE guild_id = $1 AND last_target = $2`
	if _, err := r.db.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("ошибка очистки ссылок на цель: %w", err)
	}
	return nil
}

// DeleteState удаляет состояние одного пользователя.
func (r *Repository) DeleteState(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM criminal_states WHERE guild_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("ошибка удаления криминального состояния: %w", err)
	}
	return nil
}

// WipeGuild удаляет состояния и пользовательские сценарии гильдии.
func (r *Repository) WipeGuild(ctx context.Context, guildID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM criminal_states WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("ошибка вайпа состояний: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM custom_scenarios WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("ошибка вайпа сценариев: %w", err)
	}
	return tx.Commit(ctx)
}

// AddScenario сохраняет пользовательский сценарий гильдии.
func (r *Repository) AddScenario(ctx context.Context, sc *Scenario) error {
	query := `
		INSERT INTO custom_scenarios (id, guild_id, weight, risk,
			min_reward, max_reward, success_rate, jail_seconds, fine_mult,
			attempt_text, success_text, fail_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		sc.ID, sc.GuildID, sc.Weight, sc.Risk,
		sc.MinReward, sc.MaxReward, sc.SuccessRate,
		int64(sc.JailTime/time.Second), sc.FineMult,
		sc.AttemptText, sc.SuccessText, sc.FailText,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сценария: %w", err)
	}
	return nil
}

// ListScenarios возвращает пользовательские сценарии гильдии.
func (r *Repository) ListScenarios(ctx context.Context, guildID int64) ([]*Scenario, error) {
	query := `
		SELECT id, guild_id, weight, risk, min_reward, max_reward,
		       success_rate, jail_seconds, fine_mult,
		       attempt_text, success_text, fail_text
		FROM custom_scenarios WHERE guild_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сценариев: %w", err)
	}
	defer rows.Close()

	var scenarios []*Scenario
	for rows.Next() {
		var (
			sc          Scenario
			jailSeconds int64
		)
		err := rows.Scan(
			&sc.ID, &sc.GuildID, &sc.Weight, &sc.Risk,
			&sc.MinReward, &sc.MaxReward, &sc.SuccessRate,
			&jailSeconds, &sc.FineMult,
			&sc.AttemptText, &sc.SuccessText, &sc.FailText,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения сценария: %w", err)
		}
		sc.JailTime = time.Duration(jailSeconds) * time.Second
		scenarios = append(scenarios, &sc)
	}
	return scenarios, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*CriminalState, error) {
	var (
		st              CriminalState
		cooldownsRaw    []byte
		perksRaw        []byte
		jailUntil       int64
		sentenceSeconds int64
	)
	err := row.Scan(
		&st.GuildID, &st.UserID, &cooldownsRaw, &jailUntil, &st.JailChannelID,
		&sentenceSeconds, &st.AttemptedJailbreak,
		&st.NotifyUnlocked, &st.NotifyOnRelease, &st.ReleaseNotified,
		&perksRaw, &st.LastTarget,
		&st.TotalSuccessful, &st.TotalFailed, &st.TotalFinesPaid, &st.TotalEarned,
		&st.TotalStolenFrom, &st.TotalStolenBy, &st.TotalBailPaid, &st.LargestHeist,
		&st.CurrentStreak, &st.MaxStreak,
	)
	if err != nil {
		return nil, err
	}

	st.Cooldowns, err = unmarshalCooldowns(cooldownsRaw)
	if err != nil {
		return nil, err
	}
	if len(perksRaw) > 0 {
		if err := json.Unmarshal(perksRaw, &st.Perks); err != nil {
			return nil, err
		}
	}
	if jailUntil > 0 {
		st.JailUntil = time.Unix(jailUntil, 0)
	}
	st.OriginalSentence = time.Duration(sentenceSeconds) * time.Second
	return &st, nil
}

// Кулдауны сериализуются как тип → unix-секунды.
func marshalCooldowns(cd map[string]time.Time) ([]byte, error) {
	raw := make(map[string]int64, len(cd))
	for k, v := range cd {
		raw[k] = v.Unix()
	}
	return json.Marshal(raw)
}

func unmarshalCooldowns(data []byte) (map[string]time.Time, error) {
	cd := make(map[string]time.Time)
	if len(data) == 0 {
		return cd, nil
	}
	raw := make(map[string]int64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		cd[k] = time.Unix(v, 0)
	}
	return cd, nil
}
