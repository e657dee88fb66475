// Package business — service.go: операции бизнес-движка.
// Операции владельца сериализуются мьютексом по ключу "guild:user".
// Деньги двигаются только через проводки счётов: при ошибке проводки
// изменение сейфа откатывается.
package business

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/city-bot/internal/common"
	"serotonyl.ru/city-bot/internal/features/ledger"
	"serotonyl.ru/city-bot/internal/features/settings"
)

// Ledger — операции со счётом, нужные бизнес-движку.
type Ledger interface {
	Credit(ctx context.Context, guildID, userID, amount int64, txType, description string) error
	Debit(ctx context.Context, guildID, userID, amount int64, txType, description string) error
}

// Jailer сажает проваленного грабителя. Реализуется криминальным движком.
type Jailer interface {
	Imprison(ctx context.Context, guildID, userID int64, sentence time.Duration, channelID int64) (time.Duration, error)
}

// CrimeGate проверяет и фиксирует попытку налёта на стороне грабителя
// (тюрьма, кулдаун rob_business, перки). Реализуется криминальным
// движком. CanAct, RecordAttempt и AttackBonus вызываются под
// мьютексом грабителя и сами его не берут.
type CrimeGate interface {
	CanAct(ctx context.Context, guildID, userID int64, crimeType string) error
	RecordAttempt(ctx context.Context, guildID, userID int64, crimeType string) error
	AttackBonus(ctx context.Context, guildID, userID int64) (float64, error)
}

// Store — хранилище бизнесов.
type Store interface {
	Get(ctx context.Context, guildID, userID int64) (*Business, error)
	Create(ctx context.Context, b *Business) error
	Save(ctx context.Context, b *Business) error
	List(ctx context.Context) ([]*Business, error)
	Delete(ctx context.Context, guildID, userID int64) error
	WipeGuild(ctx context.Context, guildID int64) error
}

// Configs отдаёт действующие настройки преступлений гильдии.
type Configs interface {
	Crime(ctx context.Context, guildID int64, crimeType string) (*settings.CrimeConfig, error)
}

// Service — бизнес-движок города.
type Service struct {
	repo     Store
	settings Configs
	ledger   Ledger
	jailer   Jailer
	gate     CrimeGate
	locks    *common.KeyedMutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService создаёт бизнес-движок.
func NewService(repo Store, st Configs, led Ledger, jailer Jailer, gate CrimeGate, locks *common.KeyedMutex) *Service {
	return &Service{
		repo:     repo,
		settings: st,
		ledger:   led,
		jailer:   jailer,
		gate:     gate,
		locks:    locks,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start регистрирует новый бизнес. Один бизнес на пользователя.
func (s *Service) Start(ctx context.Context, guildID, userID int64, name, industry string) (*Business, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if !ValidIndustry(industry) {
		return nil, common.ErrUnknownIndustry
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrInvalidConfig
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if _, err := s.repo.Get(ctx, guildID, userID); err == nil {
		return nil, common.ErrBusinessExists
	} else if !errors.Is(err, common.ErrNoBusiness) {
		return nil, err
	}

	if err := s.ledger.Debit(ctx, guildID, userID, StartCost, ledger.TxBusinessChange, "Регистрация бизнеса: "+name); err != nil {
		return nil, err
	}

	now := time.Now()
	b := &Business{
		GuildID:     guildID,
		UserID:      userID,
		Name:        name,
		Industry:    industry,
		Level:       1,
		LastAccrual: now,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.refund(ctx, guildID, userID, StartCost, "Возврат регистрации бизнеса")
		return nil, err
	}

	log.WithFields(log.Fields{
		"guild":    guildID,
		"user":     userID,
		"industry": industry,
	}).Info("Открыт новый бизнес")
	return b, nil
}

// Deposit кладёт кредиты в сейф. Превышение потолка отклоняется
// целиком, без частичного зачисления.
func (s *Service) Deposit(ctx context.Context, guildID, userID, amount int64) (*Business, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.touch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if b.Vault+amount > MaxVault(b.Level) {
		return nil, common.ErrVaultLimit
	}

	if err := s.ledger.Debit(ctx, guildID, userID, amount, ledger.TxVaultDeposit, "Пополнение сейфа"); err != nil {
		return nil, err
	}
	b.Vault += amount
	if err := s.repo.Save(ctx, b); err != nil {
		s.refund(ctx, guildID, userID, amount, "Возврат пополнения сейфа")
		return nil, err
	}
	return b, nil
}

// Withdraw снимает кредиты из сейфа. Для производства любое снятие
// обнуляет серию дней.
func (s *Service) Withdraw(ctx context.Context, guildID, userID, amount int64) (*Business, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.touch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if amount > b.Vault {
		return nil, common.ErrVaultShort
	}

	prevStreak := b.ManufacturingStreak
	prevWithdrawal := b.LastWithdrawal
	b.Vault -= amount
	if b.Industry == IndustryManufacturing {
		b.ManufacturingStreak = 0
	}
	b.LastWithdrawal = time.Now()

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.ledger.Credit(ctx, guildID, userID, amount, ledger.TxVaultWithdraw, "Снятие из сейфа"); err != nil {
		b.Vault += amount
		b.ManufacturingStreak = prevStreak
		b.LastWithdrawal = prevWithdrawal
		if saveErr := s.repo.Save(ctx, b); saveErr != nil {
			log.WithError(saveErr).Error("Не удалось откатить снятие из сейфа")
		}
		return nil, err
	}
	return b, nil
}

// Upgrade повышает уровень бизнеса на единицу: нужен сейф не ниже
// половины текущего потолка и стоимость апгрейда на счёте.
func (s *Service) Upgrade(ctx context.Context, guildID, userID int64) (*Business, error) {
	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.touch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if b.Level >= MaxLevel {
		return nil, common.ErrMaxLevel
	}
	if b.Vault < MaxVault(b.Level)/2 {
		return nil, common.ErrUpgradeVault
	}

	next := b.Level + 1
	cost := UpgradeCost(next)
	if err := s.ledger.Debit(ctx, guildID, userID, cost, ledger.TxUpgrade, fmt.Sprintf("Апгрейд бизнеса до уровня %d", next)); err != nil {
		return nil, err
	}

	b.Level = next
	if err := s.repo.Save(ctx, b); err != nil {
		s.refund(ctx, guildID, userID, cost, "Возврат апгрейда бизнеса")
		return nil, err
	}

	log.WithFields(log.Fields{"guild": guildID, "user": userID, "level": next}).Info("Бизнес повышен в уровне")
	return b, nil
}

// ChangeIndustry меняет отрасль за половину текущего потолка сейфа.
// Бонусы и штрафы сбрасываются, сейф и уровень сохраняются.
func (s *Service) ChangeIndustry(ctx context.Context, guildID, userID int64, industry string) (*Business, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if !ValidIndustry(industry) {
		return nil, common.ErrUnknownIndustry
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.touch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if b.Industry == industry {
		return nil, common.ErrSameIndustry
	}

	cost := MaxVault(b.Level) / 2
	if err := s.ledger.Debit(ctx, guildID, userID, cost, ledger.TxBusinessChange, "Смена отрасли на "+industry); err != nil {
		return nil, err
	}

	prev := *b
	b.Industry = industry
	b.TradingBonusPct = 0
	b.ManufacturingStreak = 0
	b.RetailPenalties = nil
	if err := s.repo.Save(ctx, b); err != nil {
		*b = prev
		s.refund(ctx, guildID, userID, cost, "Возврат смены отрасли")
		return nil, err
	}
	return b, nil
}

// BuyItem покупает предмет магазина. Предметы постоянные
// и закрыты минимальным уровнем бизнеса.
func (s *Service) BuyItem(ctx context.Context, guildID, userID int64, itemID string) (*ShopItem, error) {
	item, ok := ShopItems[itemID]
	if !ok {
		return nil, common.ErrUnknownItem
	}

	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.touch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if b.HasItem(itemID) {
		return nil, common.ErrItemOwned
	}
	if b.Level < item.MinLevel {
		return nil, common.ErrItemLevelGate
	}

	if err := s.ledger.Debit(ctx, guildID, userID, item.Cost, ledger.TxBusinessItem, "Покупка: "+item.Name); err != nil {
		return nil, err
	}
	b.Items = append(b.Items, itemID)
	if err := s.repo.Save(ctx, b); err != nil {
		s.refund(ctx, guildID, userID, item.Cost, "Возврат покупки: "+item.Name)
		return nil, err
	}
	return &item, nil
}

// Rob — налёт на чужой бизнес. Обе стороны мутируются: владелец
// здесь, грабитель в криминальном движке (кулдаун rob_business,
// посадка при провале). Оба мьютекса берутся сразу в упорядоченной
// паре, дальше весь путь идёт без новых блокировок.
func (s *Service) Rob(ctx context.Context, guildID, robberID, ownerID, channelID int64) (*RobberyOutcome, error) {
	if robberID == ownerID {
		return nil, common.ErrSelfTarget
	}
	cfg, err := s.settings.Crime(ctx, guildID, settings.CrimeRobBusiness)
	if err != nil {
		return nil, err
	}

	robberKey := common.UserKey(guildID, robberID)
	ownerKey := common.UserKey(guildID, ownerID)
	s.locks.LockPair(robberKey, ownerKey)
	defer s.locks.UnlockPair(robberKey, ownerKey)

	if err := s.gate.CanAct(ctx, guildID, robberID, settings.CrimeRobBusiness); err != nil {
		return nil, err
	}

	now := time.Now()
	b, err := s.touch(ctx, guildID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := CanRob(b, now); err != nil {
		return nil, err
	}

	bonus, err := s.gate.AttackBonus(ctx, guildID, robberID)
	if err != nil {
		return nil, err
	}

	// Попытка занимает суточное окно бизнеса независимо от исхода.
	if err := s.gate.RecordAttempt(ctx, guildID, robberID, settings.CrimeRobBusiness); err != nil {
		return nil, err
	}
	b.LastRobbedAt = now

	out := &RobberyOutcome{Chance: RobberyChance(b, bonus)}
	var stealPct float64
	s.rngMu.Lock()
	out.Success = s.rng.Float64() < out.Chance
	stealPct = RollSteal(b, s.rng)
	s.rngMu.Unlock()

	if !out.Success {
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		out.Sentence, err = s.jailer.Imprison(ctx, guildID, robberID, cfg.JailTime, channelID)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"guild": guildID, "robber": robberID, "owner": ownerID}).Info("Налёт провален")
		return out, nil
	}

	out.Stolen = StealAmount(b, stealPct)
	out.Insured = InsuranceRefund(b, out.Stolen)
	prevVault := b.Vault
	prevPenalties := b.RetailPenalties
	b.Vault -= out.Stolen
	if b.Industry == IndustryRetail {
		b.RetailPenalties = append(b.RetailPenalties[:len(b.RetailPenalties):len(b.RetailPenalties)], RetailPenalty{
			Pct:       0.05,
			ExpiresAt: now.Add(24 * time.Hour),
		})
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}

	if out.Stolen > 0 {
		if err := s.ledger.Credit(ctx, guildID, robberID, out.Stolen, ledger.TxVaultRobbery, "Налёт на бизнес"); err != nil {
			b.Vault = prevVault
			b.RetailPenalties = prevPenalties
			if saveErr := s.repo.Save(ctx, b); saveErr != nil {
				log.WithError(saveErr).Error("Не удалось откатить налёт")
			}
			return nil, err
		}
	}
	if out.Insured > 0 {
		if err := s.ledger.Credit(ctx, guildID, ownerID, out.Insured, ledger.TxVaultRobbery, "Страховая выплата за налёт"); err != nil {
			log.WithError(err).Warn("Не удалось выплатить страховку владельцу")
		}
	}

	log.WithFields(log.Fields{
		"guild":  guildID,
		"robber": robberID,
		"owner":  ownerID,
		"stolen": out.Stolen,
	}).Info("Налёт удался")
	return out, nil
}

// Info возвращает развёрнутое состояние бизнеса, начислив прибыль.
func (s *Service) Info(ctx context.Context, guildID, userID int64) (*Info, error) {
	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	b, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	accrued := Accrue(b, time.Now())
	if accrued > 0 {
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	return &Info{
		Name:                b.Name,
		Industry:            b.Industry,
		Level:               b.Level,
		Vault:               b.Vault,
		MaxVault:            MaxVault(b.Level),
		DailyRate:           EffectiveDailyRate(b, DayKey(now), now),
		Accrued:             accrued,
		TradingBonusPct:     b.TradingBonusPct,
		ManufacturingStreak: b.ManufacturingStreak,
		PenaltyPct:          b.ActivePenaltyPct(now),
		Items:               b.Items,
	}, nil
}

// Summary — однострочная сводка для профиля преступника.
func (s *Service) Summary(ctx context.Context, guildID, userID int64) (string, error) {
	info, err := s.Info(ctx, guildID, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s, уровень %d) — в сейфе %s из %s",
		info.Name, industryLabel(info.Industry), info.Level,
		common.FormatCredits(info.Vault), common.FormatNumber(info.MaxVault)), nil
}

// DailyRollover обрабатывает границу дня для всех бизнесов:
// бонусы трейдинга, серии производства, чистка штрафов розницы.
// day — завершившийся серверный день.
func (s *Service) DailyRollover(ctx context.Context, day string) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, b := range all {
		key := common.UserKey(b.GuildID, b.UserID)
		s.locks.Lock(key)
		Accrue(b, now)
		DailyRollover(b, day, now)
		err := s.repo.Save(ctx, b)
		s.locks.Unlock(key)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild": b.GuildID,
				"user":  b.UserID,
			}).Error("Не удалось обработать суточный пересчёт бизнеса")
		}
	}

	log.WithField("businesses", len(all)).Info("Суточный пересчёт бизнесов завершён")
	return nil
}

// ResetUser удаляет бизнес пользователя (админский вайп).
func (s *Service) ResetUser(ctx context.Context, guildID, userID int64) error {
	key := common.UserKey(guildID, userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	return s.repo.Delete(ctx, guildID, userID)
}

// WipeGuild удаляет все бизнесы гильдии.
func (s *Service) WipeGuild(ctx context.Context, guildID int64) error {
	return s.repo.WipeGuild(ctx, guildID)
}

// touch загружает бизнес и начисляет накопившуюся прибыль.
// Вызывается под мьютексом владельца.
func (s *Service) touch(ctx context.Context, guildID, userID int64) (*Business, error) {
	b, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if accrued := Accrue(b, time.Now()); accrued > 0 {
		log.WithFields(log.Fields{
			"guild":   guildID,
			"user":    userID,
			"accrued": accrued,
		}).Debug("Начислена прибыль сейфа")
	}
	return b, nil
}

func (s *Service) refund(ctx context.Context, guildID, userID, amount int64, description string) {
	if err := s.ledger.Credit(ctx, guildID, userID, amount, ledger.TxBusinessChange, description); err != nil {
		log.WithError(err).Error("Не удалось вернуть списание")
	}
}

func industryLabel(industry string) string {
	switch industry {
	case IndustryTrading:
		return "трейдинг"
	case IndustryManufacturing:
		return "производство"
	case IndustryRetail:
		return "розница"
	}
	return industry
}
