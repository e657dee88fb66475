// Package crime — service.go связывает трекер, резолвер и тюрьму
// в операции движка. Все операции одного пользователя сериализуются
// мьютексом по ключу "guild:user": двойные нажатия и параллельные
// команды не приводят к двойному исполнению.
package crime

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/ledger"
	"serotonyl.ru/city-bot/internal/features/settings"
)

// Ledger — операции со счётом, нужные криминальному движку.
type Ledger interface {
	Balance(ctx context.Context, guildID, userID int64) (int64, error)
	Credit(ctx context.Context, guildID, userID, amount int64, txType, description string) error
	Debit(ctx context.Context, guildID, userID, amount int64, txType, description string) error
	Transfer(ctx context.Context, guildID, fromUserID, toUserID, amount int64, txType, description string) error
}

// Scheduler планирует отложенные срабатывания (уведомления о выходе).
type Scheduler interface {
	Schedule(key string, at time.Time, fn func())
	Cancel(key string)
}

// Deliverer доставляет текст в канал. Реализация живёт в notify.
type Deliverer interface {
	Deliver(ctx context.Context, channelID int64, text string) error
}

// BusinessSummaries отдаёт краткую сводку бизнеса для профиля.
type BusinessSummaries interface {
	Summary(ctx context.Context, guildID, userID int64) (string, error)
}

// Store — хранилище криминальных состояний и сценариев.
type Store interface {
	Get(ctx context.Context, guildID, userID int64) (*CriminalState, error)
	Save(ctx context.Context, st *CriminalState) error
	DeleteState(ctx context.Context, guildID, userID int64) error
	ClearLastTargetRefs(ctx context.Context, guildID, userID int64) error
	WipeGuild(ctx context.Context, guildID int64) error
	ListDueNotifications(ctx context.Context, now time.Time) ([]*CriminalState, error)
	MarkNotified(ctx context.Context, guildID, userID int64) error
	AddScenario(ctx context.Context, sc *Scenario) error
	ListScenarios(ctx context.Context, guildID int64) ([]*Scenario, error)
}

// Configs отдаёт действующие настройки гильдии.
type Configs interface {
	Global(ctx context.Context, guildID int64) (*settings.GlobalSettings, error)
	Crime(ctx context.Context, guildID int64, crimeType string) (*settings.CrimeConfig, error)
	Crimes(ctx context.Context, guildID int64) ([]*settings.CrimeConfig, error)
}

// Service — криминальный движок города.
type Service struct {
	repo      Store
	settings  Configs
	ledger    Ledger
	scheduler Scheduler
	deliverer Deliverer
	locks     *common.KeyedMutex

	// Сводка бизнеса подключается после создания: пакеты
	// business и crime ссылаются друг на друга через интерфейсы.
	businesses BusinessSummaries

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService создаёт криминальный движок.
func NewService(repo Store, st Configs, led Ledger, sched Scheduler, del Deliverer, locks *common.KeyedMutex) *Service {
	return &Service{
		repo:      repo,
		settings:  st,
		ledger:    led,
		scheduler: sched,
		deliverer: del,
		locks:     locks,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetBusinessSummaries подключает сводку бизнеса к профилю.
func (s *Service) SetBusinessSummaries(b BusinessSummaries) {
	s.businesses = b
}

func (s *Service) roll(fn func(rng *rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}

// CommitCrime — попытка преступления. Кулдаун ставится на момент
// попытки независимо от исхода. Целевые преступления требуют живую
// цель с балансом выше порога; случайное — разыгрывает сценарий.
func (s *Service) CommitCrime(ctx context.Context, guildID, actorID int64, crimeType string, targetID, channelID int64) (*CrimeResult, error) {
	cfg, err := s.settings.Crime(ctx, guildID, crimeType)
	if err != nil {
		return nil, err
	}
	gs, err := s.settings.Global(ctx, guildID)
	if err != nil {
		return nil, err
	}

	actorKey := common.UserKey(guildID, actorID)
	if cfg.RequiresTarget && targetID != 0 {
		targetKey := common.UserKey(guildID, targetID)
		s.locks.LockPair(actorKey, targetKey)
		defer s.locks.UnlockPair(actorKey, targetKey)
	} else {
		s.locks.Lock(actorKey)
		defer s.locks.Unlock(actorKey)
	}

	now := time.Now()
	st, err := s.repo.Get(ctx, guildID, actorID)
	if err != nil {
		return nil, err
	}
	if err := CanCommit(st, cfg, now); err != nil {
		return nil, err
	}

	var (
		target    *CriminalState
		targetBal int64
	)
	if cfg.RequiresTarget {
		targetBal, err = s.ledger.Balance(ctx, guildID, targetID)
		if err != nil {
			return nil, err
		}
		if err := CanTarget(st, actorID, targetID, targetBal, gs.MinStealBalance); err != nil {
			return nil, err
		}
		target, err = s.repo.Get(ctx, guildID, targetID)
		if err != nil {
			return nil, err
		}
	}

	var scenario *Scenario
	if crimeType == settings.CrimeRandom {
		scenarios := BuiltinScenarios()
		custom, err := s.repo.ListScenarios(ctx, guildID)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, custom...)
		s.roll(func(rng *rand.Rand) {
			scenario = PickScenario(scenarios, rng)
		})
	}

	// Кулдаун фиксируется до разрешения исхода: даже если проводка
	// по счёту упадёт, попытка считается сделанной.
	RecordAction(st, crimeType, now)
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}

	var out Outcome
	s.roll(func(rng *rand.Rand) {
		out = Resolve(ResolveInput{
			Config:          cfg,
			Global:          gs,
			Actor:           st,
			Defender:        target,
			DefenderBalance: targetBal,
			Scenario:        scenario,
		}, rng)
	})

	res := &CrimeResult{Outcome: out}
	if out.Success {
		err = s.applySuccess(ctx, st, target, cfg, res, now)
	} else {
		err = s.applyFailure(ctx, st, gs, channelID, res, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.applyEventCredits(ctx, st, out.Events); err != nil {
		log.WithError(err).Warn("Не удалось провести денежные события преступления")
	}

	log.WithFields(log.Fields{
		"guild":   guildID,
		"user":    actorID,
		"crime":   crimeType,
		"success": out.Success,
		"amount":  res.Amount,
	}).Info("Преступление разрешено")
	return res, nil
}

func (s *Service) applySuccess(ctx context.Context, st, target *CriminalState, cfg *settings.CrimeConfig, res *CrimeResult, now time.Time) error {
	if res.Amount > 0 {
		desc := fmt.Sprintf("Успешное преступление: %s", cfg.CrimeType)
		if cfg.RequiresTarget {
			if err := s.ledger.Transfer(ctx, st.GuildID, target.UserID, st.UserID, res.Amount, ledger.TxCrimeSteal, desc); err != nil {
				return err
			}
			target.TotalStolenBy += res.Amount
			if err := s.repo.Save(ctx, target); err != nil {
				return err
			}
			st.LastTarget = target.UserID
			st.TotalStolenFrom += res.Amount
		} else {
			if err := s.ledger.Credit(ctx, st.GuildID, st.UserID, res.Amount, ledger.TxCrimeReward, desc); err != nil {
				return err
			}
		}
	}

	st.TotalSuccessful++
	st.TotalEarned += res.Amount
	st.CurrentStreak++
	if st.CurrentStreak > st.MaxStreak {
		st.MaxStreak = st.CurrentStreak
	}
	if res.Amount > st.LargestHeist {
		st.LargestHeist = res.Amount
	}
	return s.repo.Save(ctx, st)
}

func (s *Service) applyFailure(ctx context.Context, st *CriminalState, gs *settings.GlobalSettings, channelID int64, res *CrimeResult, now time.Time) error {
	balance, err := s.ledger.Balance(ctx, st.GuildID, st.UserID)
	if err != nil {
		return err
	}

	sentence := res.JailTime
	res.FinePaid = res.Fine
	if balance < res.Fine {
		// Штраф не по карману: конфискуем всё и удваиваем срок.
		res.FinePaid = balance
		res.SentenceDoubled = true
		sentence *= 2
	}
	if res.FinePaid > 0 {
		desc := fmt.Sprintf("Штраф за преступление: %s", res.CrimeType)
		if err := s.ledger.Debit(ctx, st.GuildID, st.UserID, res.FinePaid, ledger.TxCrimeFine, desc); err != nil {
			return err
		}
	}

	res.Sentence = SendToJail(st, sentence, channelID, now)
	st.TotalFailed++
	st.TotalFinesPaid += res.FinePaid
	st.CurrentStreak = 0

	if err := s.repo.Save(ctx, st); err != nil {
		// Штраф списан, посадка не записалась: возвращаем штраф.
		if res.FinePaid > 0 {
			desc := fmt.Sprintf("Возврат штрафа: %s", res.CrimeType)
			if refundErr := s.ledger.Credit(ctx, st.GuildID, st.UserID, res.FinePaid, ledger.TxCrimeFine, desc); refundErr != nil {
				log.WithError(refundErr).Error("Не удалось вернуть штраф")
			}
		}
		return err
	}
	s.scheduleRelease(st)
	return nil
}

func (s *Service) applyEventCredits(ctx context.Context, st *CriminalState, events []CrimeEvent) error {
	for _, ev := range events {
		if ev.CreditsBonus > 0 {
			if err := s.ledger.Credit(ctx, st.GuildID, st.UserID, ev.CreditsBonus, ledger.TxCrimeEvent, ev.Text); err != nil {
				return err
			}
		}
		if ev.CreditsPenalty > 0 {
			err := s.ledger.Debit(ctx, st.GuildID, st.UserID, ev.CreditsPenalty, ledger.TxCrimeEvent, ev.Text)
			if err != nil && !errors.Is(err, common.ErrInsufficientFunds) {
				return err
			}
		}
	}
	return nil
}

// PayBail выкупает пользователя из тюрьмы.
// Стоимость пересчитывается от остатка срока на момент оплаты.
func (s *Service) PayBail(ctx context.Context, guildID, userID int64) (*BailResult, error) {
	gs, err := s.settings.Global(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if !gs.AllowBail {
		return nil, common.ErrBailDisabled
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := time.Now()
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if !st.Jailed(now) {
		return nil, common.ErrNotJailed
	}

	cost := BailCost(st.JailRemaining(now), gs.BailCostMult)
	if cost > 0 {
		if err := s.ledger.Debit(ctx, guildID, userID, cost, ledger.TxBail, "Залог за освобождение"); err != nil {
			return nil, err
		}
	}

	ClearJail(st)
	st.TotalBailPaid += cost
	if err := s.repo.Save(ctx, st); err != nil {
		// Деньги списаны, освобождение не записалось: возвращаем залог.
		if cost > 0 {
			if refundErr := s.ledger.Credit(ctx, guildID, userID, cost, ledger.TxBail, "Возврат залога"); refundErr != nil {
				log.WithError(refundErr).Error("Не удалось вернуть залог")
			}
		}
		return nil, err
	}
	s.scheduler.Cancel(key)

	balance, err := s.ledger.Balance(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"guild": guildID, "user": userID, "cost": cost}).Info("Залог оплачен")
	return &BailResult{Cost: cost, NewBalance: balance}, nil
}

// AttemptJailbreak — попытка побега, одна за срок.
// Провал продлевает остаток срока на долю из настроек.
func (s *Service) AttemptJailbreak(ctx context.Context, guildID, userID int64) (*JailbreakResult, error) {
	gs, err := s.settings.Global(ctx, guildID)
	if err != nil {
		return nil, err
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := time.Now()
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if !st.Jailed(now) {
		return nil, common.ErrNotJailed
	}
	if st.AttemptedJailbreak {
		return nil, common.ErrAlreadyAttempted
	}

	res := &JailbreakResult{}
	s.roll(func(rng *rand.Rand) {
		res.Success, res.FinalChance, res.Scenario, res.Events = RollJailbreak(rng)
	})

	if res.Success {
		ClearJail(st)
		s.scheduler.Cancel(key)
	} else {
		remaining := st.JailRemaining(now)
		extended := JailbreakExtension(remaining, gs.JailbreakPenaltyPct)
		res.Extension = extended - remaining
		st.JailUntil = now.Add(extended)
		st.AttemptedJailbreak = true
		st.ReleaseNotified = false
	}

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}
	if !res.Success {
		s.scheduleRelease(st)
	}

	log.WithFields(log.Fields{
		"guild":   guildID,
		"user":    userID,
		"success": res.Success,
		"chance":  res.FinalChance,
	}).Info("Попытка побега")
	return res, nil
}

// Status собирает профиль преступника: тюрьма, кулдауны по всем
// типам, статистика и сводка бизнеса.
func (s *Service) Status(ctx context.Context, guildID, userID int64) (*Status, error) {
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	configs, err := s.settings.Crimes(ctx, guildID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := &Status{
		Jailed:             st.Jailed(now),
		JailRemaining:      st.JailRemaining(now),
		AttemptedJailbreak: st.AttemptedJailbreak,
		NotifyOnRelease:    st.NotifyOnRelease,
		Cooldowns:          make(map[string]time.Duration, len(configs)),
		Stats: StatusStats{
			TotalSuccessful: st.TotalSuccessful,
			TotalFailed:     st.TotalFailed,
			TotalFinesPaid:  st.TotalFinesPaid,
			TotalEarned:     st.TotalEarned,
			TotalStolenFrom: st.TotalStolenFrom,
			TotalStolenBy:   st.TotalStolenBy,
			TotalBailPaid:   st.TotalBailPaid,
			LargestHeist:    st.LargestHeist,
			CurrentStreak:   st.CurrentStreak,
			MaxStreak:       st.MaxStreak,
		},
	}
	for _, cfg := range configs {
		status.Cooldowns[cfg.CrimeType] = RemainingCooldown(st, cfg.CrimeType, cfg.Cooldown, now)
	}

	if s.businesses != nil {
		summary, err := s.businesses.Summary(ctx, guildID, userID)
		if err != nil && !errors.Is(err, common.ErrNoBusiness) {
			return nil, err
		}
		status.BusinessSummary = summary
	}
	return status, nil
}

// UnlockNotify платно разблокирует уведомления о выходе.
// Повторная покупка отклоняется без списания.
func (s *Service) UnlockNotify(ctx context.Context, guildID, userID int64) error {
	gs, err := s.settings.Global(ctx, guildID)
	if err != nil {
		return err
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if st.NotifyUnlocked {
		return common.ErrItemOwned
	}

	if gs.NotifyCostEnabled && gs.NotifyCost > 0 {
		if err := s.ledger.Debit(ctx, guildID, userID, gs.NotifyCost, ledger.TxPerkPurchase, "Разблокировка уведомлений о выходе"); err != nil {
			return err
		}
	}

	st.NotifyUnlocked = true
	st.NotifyOnRelease = true
	if err := s.repo.Save(ctx, st); err != nil {
		return err
	}
	if st.Jailed(time.Now()) {
		s.scheduleRelease(st)
	}
	return nil
}

// ToggleNotify включает или выключает уведомления о выходе.
// Требует разблокировки (покупкой или перком чёрного рынка).
func (s *Service) ToggleNotify(ctx context.Context, guildID, userID int64, enable bool) error {
	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if enable && !st.NotifyUnlocked {
		return common.ErrNotifyLocked
	}

	st.NotifyOnRelease = enable
	if err := s.repo.Save(ctx, st); err != nil {
		return err
	}
	if enable && st.Jailed(time.Now()) {
		s.scheduleRelease(st)
	} else if !enable {
		s.scheduler.Cancel(common.UserKey(guildID, userID))
	}
	return nil
}

// BuyPerk покупает предмет чёрного рынка. Перки постоянные,
// повторная покупка отклоняется.
func (s *Service) BuyPerk(ctx context.Context, guildID, userID int64, itemID string) (*PerkItem, error) {
	item, ok := BlackmarketItems[itemID]
	if !ok {
		return nil, common.ErrUnknownItem
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if st.HasPerk(itemID) {
		return nil, common.ErrItemOwned
	}

	if err := s.ledger.Debit(ctx, guildID, userID, item.Cost, ledger.TxPerkPurchase, "Чёрный рынок: "+item.Name); err != nil {
		return nil, err
	}

	st.Perks = append(st.Perks, itemID)
	if item.UnlocksNotify {
		st.NotifyUnlocked = true
		st.NotifyOnRelease = true
	}
	if err := s.repo.Save(ctx, st); err != nil {
		// Деньги списаны, перк не записался: возвращаем списание.
		if refundErr := s.ledger.Credit(ctx, guildID, userID, item.Cost, ledger.TxPerkPurchase, "Возврат: "+item.Name); refundErr != nil {
			log.WithError(refundErr).Error("Не удалось вернуть оплату перка")
		}
		return nil, err
	}

	log.WithFields(log.Fields{"guild": guildID, "user": userID, "item": itemID}).Info("Куплен перк чёрного рынка")
	return &item, nil
}

// AddCustomScenario добавляет пользовательский сценарий гильдии.
func (s *Service) AddCustomScenario(ctx context.Context, sc *Scenario) error {
	if sc.GuildID == 0 || sc.MinReward < 0 || sc.MaxReward < sc.MinReward {
		return common.ErrInvalidConfig
	}
	if sc.SuccessRate < 0 || sc.SuccessRate > 1 || sc.JailTime < 0 || sc.FineMult < 0 {
		return common.ErrInvalidConfig
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	return s.repo.AddScenario(ctx, sc)
}

// Imprison сажает пользователя извне криминального пакета
// (провал ограбления бизнеса). Вызывается под мьютексом пользователя
// и сам его не берёт: движок бизнеса держит упорядоченную пару
// грабитель+владелец на весь налёт.
func (s *Service) Imprison(ctx context.Context, guildID, userID int64, sentence time.Duration, channelID int64) (time.Duration, error) {
	now := time.Now()
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}

	effective := SendToJail(st, sentence, channelID, now)
	st.TotalFailed++
	st.CurrentStreak = 0
	if err := s.repo.Save(ctx, st); err != nil {
		return 0, err
	}
	s.scheduleRelease(st)
	return effective, nil
}

// CanAct проверяет пригодность пользователя к действию с криминальным
// конфигом (тюрьма, кулдаун, выключенный тип) без фиксации попытки.
// Мьютекс пользователя держит вызывающая сторона.
func (s *Service) CanAct(ctx context.Context, guildID, userID int64, crimeType string) error {
	cfg, err := s.settings.Crime(ctx, guildID, crimeType)
	if err != nil {
		return err
	}
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return err
	}
	return CanCommit(st, cfg, time.Now())
}

// RecordAttempt фиксирует попытку действия: кулдаун встаёт на момент
// вызова. Используется движком бизнеса для налётов; вызывается под
// мьютексом пользователя и сам его не берёт.
func (s *Service) RecordAttempt(ctx context.Context, guildID, userID int64, crimeType string) error {
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return err
	}
	RecordAction(st, crimeType, time.Now())
	return s.repo.Save(ctx, st)
}

// AttackBonus — аддитивный бонус перков пользователя к шансу успеха
// его атак. Вызывается под мьютексом пользователя и сам его не берёт.
func (s *Service) AttackBonus(ctx context.Context, guildID, userID int64) (float64, error) {
	st, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	return SuccessBonus(st.Perks), nil
}

// ResetUser стирает криминальное состояние пользователя и снимает
// ссылки на него как на последнюю цель у остальных.
func (s *Service) ResetUser(ctx context.Context, guildID, userID int64) error {
	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	s.scheduler.Cancel(key)
	if err := s.repo.DeleteState(ctx, guildID, userID); err != nil {
		return err
	}
	return s.repo.ClearLastTargetRefs(ctx, guildID, userID)
}

// WipeGuild стирает криминальные данные гильдии.
func (s *Service) WipeGuild(ctx context.Context, guildID int64) error {
	return s.repo.WipeGuild(ctx, guildID)
}

// NotifySweep — страховочный проход по просроченным уведомлениям.
// Основной путь — таймеры планировщика, но после рестарта процесса
// они теряются, и подбирает их этот обход.
func (s *Service) NotifySweep(ctx context.Context) error {
	due, err := s.repo.ListDueNotifications(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, st := range due {
		s.deliverRelease(ctx, st)
	}
	return nil
}

// scheduleRelease ставит таймер уведомления о выходе.
func (s *Service) scheduleRelease(st *CriminalState) {
	if !st.NotifyOnRelease || st.JailUntil.IsZero() {
		return
	}
	guildID, userID := st.GuildID, st.UserID
	s.scheduler.Schedule(common.UserKey(guildID, userID), st.JailUntil, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		fresh, err := s.repo.Get(ctx, guildID, userID)
		if err != nil {
			log.WithError(err).Warn("Не удалось прочитать состояние для уведомления")
			return
		}
		s.deliverRelease(ctx, fresh)
	})
}

// deliverRelease отправляет уведомление о выходе, если оно ещё
// актуально, и помечает его отправленным.
func (s *Service) deliverRelease(ctx context.Context, st *CriminalState) {
	now := time.Now()
	if st.ReleaseNotified || !st.NotifyOnRelease || st.JailUntil.IsZero() || st.JailUntil.After(now) {
		return
	}

	text := fmt.Sprintf("Срок заключения пользователя %d закончился. Добро пожаловать на свободу!", st.UserID)
	if err := s.deliverer.Deliver(ctx, st.JailChannelID, text); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild": st.GuildID,
			"user":  st.UserID,
		}).Warn("Не удалось доставить уведомление о выходе")
		return
	}
	if err := s.repo.MarkNotified(ctx, st.GuildID, st.UserID); err != nil {
		log.WithError(err).Warn("Не удалось отметить уведомление отправленным")
	}
}
