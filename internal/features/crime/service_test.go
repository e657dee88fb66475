package crime

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/settings"
)

// memStates — хранилище состояний в памяти. Get возвращает копию,
// как и настоящий репозиторий после скана строки.
type memStates struct {
	mu        sync.Mutex
	states    map[string]*CriminalState
	scenarios []*Scenario

	saves int
	// Номер вызова Save, завершающийся ошибкой (0 — никогда).
	failSaveOn int
}

func newMemStates() *memStates {
	return &memStates{states: make(map[string]*CriminalState)}
}

func copyState(st *CriminalState) *CriminalState {
	c := *st
	c.Cooldowns = make(map[string]time.Time, len(st.Cooldowns))
	for k, v := range st.Cooldowns {
		c.Cooldowns[k] = v
	}
	c.Perks = append([]string(nil), st.Perks...)
	return &c
}

func (m *memStates) put(st *CriminalState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[common.UserKey(st.GuildID, st.UserID)] = copyState(st)
}

func (m *memStates) Get(ctx context.Context, guildID, userID int64) (*CriminalState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[common.UserKey(guildID, userID)]
	if !ok {
		return NewCriminalState(guildID, userID), nil
	}
	return copyState(st), nil
}

func (m *memStates) Save(ctx context.Context, st *CriminalState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSaveOn != 0 && m.saves == m.failSaveOn {
		return errors.New("обрыв соединения с БД")
	}
	m.states[common.UserKey(st.GuildID, st.UserID)] = copyState(st)
	return nil
}

func (m *memStates) DeleteState(ctx context.Context, guildID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, common.UserKey(guildID, userID))
	return nil
}

func (m *memStates) ClearLastTargetRefs(ctx context.Context, guildID, userID int64) error {
	return nil
}

func (m *memStates) WipeGuild(ctx context.Context, guildID int64) error { return nil }

func (m *memStates) ListDueNotifications(ctx context.Context, now time.Time) ([]*CriminalState, error) {
	return nil, nil
}

func (m *memStates) MarkNotified(ctx context.Context, guildID, userID int64) error { return nil }

func (m *memStates) AddScenario(ctx context.Context, sc *Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios = append(m.scenarios, sc)
	return nil
}

func (m *memStates) ListScenarios(ctx context.Context, guildID int64) ([]*Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenarios, nil
}

// memConfigs отдаёт фиксированные настройки без похода в БД.
type memConfigs struct {
	global *settings.GlobalSettings
	crimes map[string]*settings.CrimeConfig
}

func (c *memConfigs) Global(ctx context.Context, guildID int64) (*settings.GlobalSettings, error) {
	if c.global == nil {
		return &settings.GlobalSettings{GuildID: guildID}, nil
	}
	return c.global, nil
}

func (c *memConfigs) Crime(ctx context.Context, guildID int64, crimeType string) (*settings.CrimeConfig, error) {
	cfg, ok := c.crimes[crimeType]
	if !ok {
		return nil, common.ErrUnknownCrime
	}
	return cfg, nil
}

func (c *memConfigs) Crimes(ctx context.Context, guildID int64) ([]*settings.CrimeConfig, error) {
	out := make([]*settings.CrimeConfig, 0, len(c.crimes))
	for _, cfg := range c.crimes {
		out = append(out, cfg)
	}
	return out, nil
}

type txRecord struct {
	userID int64
	amount int64
	txType string
}

// memLedger считает балансы и записывает проводки.
type memLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	debits   []txRecord
	credits  []txRecord
}

func newMemLedger(balances map[int64]int64) *memLedger {
	if balances == nil {
		balances = make(map[int64]int64)
	}
	return &memLedger{balances: balances}
}

func (l *memLedger) Balance(ctx context.Context, guildID, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *memLedger) Credit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	l.credits = append(l.credits, txRecord{userID: userID, amount: amount, txType: txType})
	return nil
}

func (l *memLedger) Debit(ctx context.Context, guildID, userID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return common.ErrInsufficientFunds
	}
	l.balances[userID] -= amount
	l.debits = append(l.debits, txRecord{userID: userID, amount: amount, txType: txType})
	return nil
}

func (l *memLedger) Transfer(ctx context.Context, guildID, fromUserID, toUserID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[fromUserID] < amount {
		return common.ErrInsufficientFunds
	}
	l.balances[fromUserID] -= amount
	l.balances[toUserID] += amount
	return nil
}

type nopScheduler struct{}

func (nopScheduler) Schedule(key string, at time.Time, fn func()) {}
func (nopScheduler) Cancel(key string)                            {}

type nopDeliverer struct{}

func (nopDeliverer) Deliver(ctx context.Context, channelID int64, text string) error { return nil }

func newTestService(store *memStates, cfgs *memConfigs, led *memLedger) *Service {
	svc := NewService(store, cfgs, led, nopScheduler{}, nopDeliverer{}, common.NewKeyedMutex())
	svc.rng = rand.New(rand.NewSource(1))
	return svc
}

func TestPayBailRefundsWhenSaveFails(t *testing.T) {
	store := newMemStates()
	st := NewCriminalState(1, 100)
	st.JailUntil = time.Now().Add(2 * time.Hour)
	store.put(st)
	store.failSaveOn = 1

	led := newMemLedger(map[int64]int64{100: 10000})
	cfgs := &memConfigs{global: &settings.GlobalSettings{AllowBail: true, BailCostMult: 0.35}}
	svc := newTestService(store, cfgs, led)

	_, err := svc.PayBail(context.Background(), 1, 100)
	require.Error(t, err)

	// Залог вернулся целиком, баланс не изменился.
	require.Len(t, led.debits, 1)
	require.Len(t, led.credits, 1)
	assert.Positive(t, led.debits[0].amount)
	assert.Equal(t, led.debits[0].amount, led.credits[0].amount)
	assert.Equal(t, int64(10000), led.balances[100])

	// Освобождение не записалось: пользователь всё ещё сидит.
	kept, err := store.Get(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.True(t, kept.Jailed(time.Now()))
}

func TestCommitCrimeRefundsFineWhenSaveFails(t *testing.T) {
	store := newMemStates()
	// Первый Save (кулдаун) проходит, второй (итог провала) падает.
	store.failSaveOn = 2

	cfg := &settings.CrimeConfig{
		GuildID:     1,
		CrimeType:   "night_shift",
		Enabled:     true,
		MaxReward:   500,
		SuccessRate: 0, // зажмётся в 0.05: бросок с seed 1 гарантированно проваливается
		Cooldown:    5 * time.Minute,
		JailTime:    30 * time.Minute,
		FineMult:    0.5,
	}
	cfgs := &memConfigs{
		global: &settings.GlobalSettings{},
		crimes: map[string]*settings.CrimeConfig{cfg.CrimeType: cfg},
	}
	led := newMemLedger(map[int64]int64{100: 1000})
	svc := newTestService(store, cfgs, led)

	_, err := svc.CommitCrime(context.Background(), 1, 100, cfg.CrimeType, 0, 500)
	require.Error(t, err)

	// Штраф 500 × 0.5 списан и тут же возвращён.
	require.Len(t, led.debits, 1)
	assert.Equal(t, int64(250), led.debits[0].amount)
	require.Len(t, led.credits, 1)
	assert.Equal(t, int64(250), led.credits[0].amount)
	assert.Equal(t, int64(1000), led.balances[100])
}

func TestJailbreakRejectedAfterAttempt(t *testing.T) {
	store := newMemStates()
	st := NewCriminalState(1, 100)
	st.JailUntil = time.Now().Add(4 * time.Hour)
	st.AttemptedJailbreak = true
	store.put(st)

	cfgs := &memConfigs{global: &settings.GlobalSettings{JailbreakPenaltyPct: 0.5}}
	svc := newTestService(store, cfgs, newMemLedger(nil))

	_, err := svc.AttemptJailbreak(context.Background(), 1, 100)
	assert.ErrorIs(t, err, common.ErrAlreadyAttempted)
}

func TestJailbreakSingleAttemptPerSentence(t *testing.T) {
	store := newMemStates()
	st := NewCriminalState(1, 100)
	st.JailUntil = time.Now().Add(4 * time.Hour)
	store.put(st)

	cfgs := &memConfigs{global: &settings.GlobalSettings{JailbreakPenaltyPct: 0.5}}
	svc := newTestService(store, cfgs, newMemLedger(nil))

	first, err := svc.AttemptJailbreak(context.Background(), 1, 100)
	require.NoError(t, err)

	// Вторая попытка в любом случае отклоняется: после удачного
	// побега пользователь на свободе, после провала — уже пытался.
	_, err = svc.AttemptJailbreak(context.Background(), 1, 100)
	if first.Success {
		assert.ErrorIs(t, err, common.ErrNotJailed)
	} else {
		assert.ErrorIs(t, err, common.ErrAlreadyAttempted)
	}
}

func TestAttackBonusFromPerks(t *testing.T) {
	store := newMemStates()
	st := NewCriminalState(1, 100)
	st.Perks = []string{PerkLuckyCharm}
	store.put(st)

	svc := newTestService(store, &memConfigs{}, newMemLedger(nil))

	bonus, err := svc.AttackBonus(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, bonus, 1e-9)

	// Без перков бонуса нет.
	bonus, err = svc.AttackBonus(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.Zero(t, bonus)
}
