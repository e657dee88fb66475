// Package app — migrations.go содержит SQL-миграции, встроенные в код.
// Применяются по версии через таблицу schema_migrations, каждая —
// в собственной транзакции.
package app

// Миграция 1: счета и история транзакций.
const migration001Ledger = `
CREATE TABLE IF NOT EXISTS balances (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	total_earned BIGINT NOT NULL DEFAULT 0,
	total_spent BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
	PRIMARY KEY (guild_id, user_id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	guild_id BIGINT NOT NULL,
	from_user_id BIGINT,
	to_user_id BIGINT,
	amount BIGINT NOT NULL,
	transaction_type VARCHAR(32) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_guild_user
	ON transactions(guild_id, to_user_id, created_at DESC);
`

// Миграция 2: настройки гильдий и конфиги преступлений.
const migration002Settings = `
CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id BIGINT PRIMARY KEY,
	default_jail_seconds BIGINT NOT NULL,
	default_fine_mult DOUBLE PRECISION NOT NULL,
	allow_bail BOOLEAN NOT NULL DEFAULT TRUE,
	bail_cost_mult DOUBLE PRECISION NOT NULL,
	min_steal_balance BIGINT NOT NULL,
	max_steal_amount BIGINT NOT NULL,
	jailbreak_penalty_pct DOUBLE PRECISION NOT NULL,
	notify_cost BIGINT NOT NULL,
	notify_cost_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crime_configs (
	guild_id BIGINT NOT NULL,
	crime_type VARCHAR(32) NOT NULL,
	requires_target BOOLEAN NOT NULL DEFAULT FALSE,
	min_reward BIGINT NOT NULL,
	max_reward BIGINT NOT NULL,
	success_rate DOUBLE PRECISION NOT NULL,
	cooldown_seconds BIGINT NOT NULL,
	jail_seconds BIGINT NOT NULL,
	risk VARCHAR(16) NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	fine_mult DOUBLE PRECISION NOT NULL,
	min_steal_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_steal_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
	PRIMARY KEY (guild_id, crime_type)
);
`

// Миграция 3: криминальные состояния и пользовательские сценарии.
const migration003Crime = `
CREATE TABLE IF NOT EXISTS criminal_states (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	cooldowns JSONB NOT NULL DEFAULT '{}',
	jail_until BIGINT NOT NULL DEFAULT 0,
	jail_channel_id BIGINT NOT NULL DEFAULT 0,
	original_sentence_seconds BIGINT NOT NULL DEFAULT 0,
	attempted_jailbreak BOOLEAN NOT NULL DEFAULT FALSE,
	notify_unlocked BOOLEAN NOT NULL DEFAULT FALSE,
	notify_on_release BOOLEAN NOT NULL DEFAULT FALSE,
	release_notified BOOLEAN NOT NULL DEFAULT FALSE,
	perks JSONB NOT NULL DEFAULT '[]',
	last_target BIGINT NOT NULL DEFAULT 0,
	total_successful INTEGER NOT NULL DEFAULT 0,
	total_failed INTEGER NOT NULL DEFAULT 0,
	total_fines_paid BIGINT NOT NULL DEFAULT 0,
	total_earned BIGINT NOT NULL DEFAULT 0,
	total_stolen_from BIGINT NOT NULL DEFAULT 0,
	total_stolen_by BIGINT NOT NULL DEFAULT 0,
	total_bail_paid BIGINT NOT NULL DEFAULT 0,
	largest_heist BIGINT NOT NULL DEFAULT 0,
	current_streak INTEGER NOT NULL DEFAULT 0,
	max_streak INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (guild_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_criminal_states_due_notify
	ON criminal_states(jail_until)
	WHERE jail_until > 0 AND notify_on_release AND NOT release_notified;

CREATE TABLE IF NOT EXISTS custom_scenarios (
	id VARCHAR(64) PRIMARY KEY,
	guild_id BIGINT NOT NULL,
	weight INTEGER NOT NULL DEFAULT 10,
	risk VARCHAR(16) NOT NULL,
	min_reward BIGINT NOT NULL,
	max_reward BIGINT NOT NULL,
	success_rate DOUBLE PRECISION NOT NULL,
	jail_seconds BIGINT NOT NULL,
	fine_mult DOUBLE PRECISION NOT NULL,
	attempt_text TEXT NOT NULL DEFAULT '',
	success_text TEXT NOT NULL DEFAULT '',
	fail_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_custom_scenarios_guild ON custom_scenarios(guild_id);
`

// Миграция 4: бизнесы.
const migration004Business = `
CREATE TABLE IF NOT EXISTS businesses (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	name VARCHAR(128) NOT NULL,
	industry VARCHAR(32) NOT NULL,
	level INTEGER NOT NULL DEFAULT 1 CHECK (level BETWEEN 1 AND 4),
	vault BIGINT NOT NULL DEFAULT 0 CHECK (vault >= 0),
	last_accrual BIGINT NOT NULL DEFAULT 0,
	trading_bonus_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_rollover_day VARCHAR(10) NOT NULL DEFAULT '',
	manufacturing_streak INTEGER NOT NULL DEFAULT 0,
	last_withdrawal BIGINT NOT NULL DEFAULT 0,
	retail_penalties JSONB NOT NULL DEFAULT '[]',
	last_robbed_at BIGINT NOT NULL DEFAULT 0,
	items JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL DEFAULT NOW(),
	PRIMARY KEY (guild_id, user_id)
);
`

// Миграция 5: аудит админ-операций и попытки подтверждения пароля.
const migration005Admin = `
CREATE TABLE IF NOT EXISTS admin_audit (
	id BIGSERIAL PRIMARY KEY,
	guild_id BIGINT NOT NULL,
	admin_id BIGINT NOT NULL,
	action VARCHAR(32) NOT NULL,
	target_id BIGINT NOT NULL DEFAULT 0,
	details TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_admin_audit_guild ON admin_audit(guild_id, created_at DESC);

CREATE TABLE IF NOT EXISTS admin_password_attempts (
	id BIGSERIAL PRIMARY KEY,
	admin_id BIGINT NOT NULL,
	attempt_time TIMESTAMP NOT NULL DEFAULT NOW(),
	success BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_password_attempts_admin
	ON admin_password_attempts(admin_id, attempt_time DESC);
`
