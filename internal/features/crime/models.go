// Package crime реализует криминальную часть симуляции города:
// кулдауны действий, вероятностное разрешение преступлений,
// тюрьму с залогом и побегами, чёрный рынок перков.
// models.go описывает состояние преступника и результаты операций.
package crime

import "time"

// CriminalState — криминальное состояние пользователя в рамках гильдии.
// Запись принадлежит этому пакету: никакой другой модуль её не мутирует.
type CriminalState struct {
	GuildID int64
	UserID  int64

	// Кулдауны: тип преступления → момент последней попытки.
	// Метки только растут: RecordAction не уменьшает существующую.
	Cooldowns map[string]time.Time

	// Тюрьма. Нулевой JailUntil означает «на свободе».
	JailUntil          time.Time
	JailChannelID      int64 // куда доставить уведомление о выходе
	OriginalSentence   time.Duration
	AttemptedJailbreak bool // не больше одной попытки побега за срок
	NotifyUnlocked     bool
	NotifyOnRelease    bool
	ReleaseNotified    bool

	// Перки чёрного рынка (постоянные).
	Perks []string

	// Последняя цель: защита от фарма взаимных ограблений.
	LastTarget int64

	// Статистика.
	TotalSuccessful int
	TotalFailed     int
	TotalFinesPaid  int64
	TotalEarned     int64
	TotalStolenFrom int64
	TotalStolenBy   int64
	TotalBailPaid   int64
	LargestHeist    int64
	CurrentStreak   int
	MaxStreak       int
}

// NewCriminalState возвращает чистое состояние нового пользователя.
func NewCriminalState(guildID, userID int64) *CriminalState {
	return &CriminalState{
		GuildID:   guildID,
		UserID:    userID,
		Cooldowns: make(map[string]time.Time),
	}
}

// Jailed сообщает, сидит ли пользователь в тюрьме на момент now.
func (st *CriminalState) Jailed(now time.Time) bool {
	return !st.JailUntil.IsZero() && st.JailUntil.After(now)
}

// JailRemaining возвращает остаток срока (0, если на свободе).
func (st *CriminalState) JailRemaining(now time.Time) time.Duration {
	if st.JailUntil.IsZero() {
		return 0
	}
	remaining := st.JailUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasPerk проверяет владение перком.
func (st *CriminalState) HasPerk(id string) bool {
	for _, p := range st.Perks {
		if p == id {
			return true
		}
	}
	return false
}

// Outcome — результат разрешения одного преступления.
type Outcome struct {
	CrimeType string
	Success   bool
	// Награда или украденная сумма при успехе.
	Amount int64
	// Начисленный штраф при провале (сколько удалось взыскать — отдельно).
	Fine int64
	// Срок заключения при провале (до перковой скидки).
	JailTime time.Duration
	// Итоговый шанс успеха после всех модификаторов.
	Rate float64
	// Выбранный сценарий (только для случайного преступления).
	Scenario *Scenario
	// Сработавшие события.
	Events []CrimeEvent
}

// CrimeResult — полный итог commit_crime для вызывающего слоя.
type CrimeResult struct {
	Outcome
	// Сколько штрафа реально взыскано (может быть меньше при пустом счёте).
	FinePaid int64
	// Срок удвоен из-за неоплаченного штрафа.
	SentenceDoubled bool
	// Эффективный срок после перковой скидки и удвоений.
	Sentence time.Duration
}

// JailbreakResult — итог попытки побега.
type JailbreakResult struct {
	Success bool
	// Итоговый шанс после событий сценария.
	FinalChance float64
	Scenario    *JailbreakScenario
	Events      []JailbreakEvent
	// На сколько продлён срок при провале.
	Extension time.Duration
}

// BailResult — итог оплаты залога.
type BailResult struct {
	Cost       int64
	NewBalance int64
}

// Status — ответ get_status: тюрьма, статистика, кулдауны, бизнес.
type Status struct {
	Jailed             bool
	JailRemaining      time.Duration
	AttemptedJailbreak bool
	NotifyOnRelease    bool
	Stats              StatusStats
	// Тип преступления → остаток кулдауна (0 = доступно).
	Cooldowns map[string]time.Duration
	// Краткая сводка бизнеса; пустая строка, если бизнеса нет.
	BusinessSummary string
}

// StatusStats — статистика для профиля преступника.
type StatusStats struct {
	TotalSuccessful int
	TotalFailed     int
	TotalFinesPaid  int64
	TotalEarned     int64
	TotalStolenFrom int64
	TotalStolenBy   int64
	TotalBailPaid   int64
	LargestHeist    int64
	CurrentStreak   int
	MaxStreak       int
}
