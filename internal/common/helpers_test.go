package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCredits(t *testing.T) {
	cases := map[int64]string{
		0:    "кредитов",
		1:    "кредит",
		2:    "кредита",
		4:    "кредита",
		5:    "кредитов",
		11:   "кредитов",
		12:   "кредитов",
		14:   "кредитов",
		21:   "кредит",
		22:   "кредита",
		100:  "кредитов",
		101:  "кредит",
		111:  "кредитов",
		1000: "кредитов",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeCredits(n), "n=%d", n)
	}
}

func TestPluralizeDays(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(1))
	assert.Equal(t, "дня", PluralizeDays(3))
	assert.Equal(t, "дней", PluralizeDays(7))
	assert.Equal(t, "дней", PluralizeDays(11))
	assert.Equal(t, "день", PluralizeDays(21))
}

func TestFormatCredits(t *testing.T) {
	assert.Equal(t, "150 кредитов", FormatCredits(150))
	assert.Equal(t, "2 351 кредит", FormatCredits(2351))
	assert.Equal(t, "1 000 002 кредита", FormatCredits(1000002))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1 000", FormatNumber(1000))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "12 034 567", FormatNumber(12034567))
	assert.Equal(t, "-2 350", FormatNumber(-2350))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2ч 15м", FormatDuration(2*time.Hour+15*time.Minute+30*time.Second))
	assert.Equal(t, "4м 30с", FormatDuration(4*time.Minute+30*time.Second))
	assert.Equal(t, "45с", FormatDuration(45*time.Second))
	assert.Equal(t, "0с", FormatDuration(-time.Minute))
	assert.Equal(t, "1ч 0м", FormatDuration(time.Hour))
}

func TestServerDay(t *testing.T) {
	loc := ServerLocation()
	ts := time.Date(2024, 6, 15, 13, 45, 12, 0, loc)
	day := ServerDay(ts)
	assert.Equal(t, 0, day.Hour())
	assert.Equal(t, 15, day.Day())
	// UTC-время 22:30 — это уже следующий день по Москве.
	utc := time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, 16, ServerDay(utc).Day())
}
