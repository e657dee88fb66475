// Package admin реализует админ-операции движка: вайпы состояния,
// правка конфигов, аудит. models.go описывает записи аудита
// и попыток подтверждения пароля.
package admin

import "time"

// AuditEntry — одна админ-операция в журнале.
type AuditEntry struct {
	ID        int64     `db:"id"`
	GuildID   int64     `db:"guild_id"`
	AdminID   int64     `db:"admin_id"`
	Action    string    `db:"action"`
	TargetID  int64     `db:"target_id"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// Действия, фиксируемые в аудите.
const (
	ActionWipeUser     = "wipe_user"
	ActionWipeAll      = "wipe_all"
	ActionCrimeConfig  = "crime_config"
	ActionGlobalConfig = "global_config"
)

// PasswordAttempt — попытка подтверждения пароля для опасных операций.
type PasswordAttempt struct {
	ID          int64     `db:"id"`
	AdminID     int64     `db:"admin_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}
