// Package common — keylock.go реализует именованные мьютексы.
// Все операции одного пользователя (двойные нажатия кнопок, параллельные
// команды) сериализуются через блокировку по ключу "guild:user", чтобы
// проверки кулдаунов и начисление прибыли сейфа были линеаризуемыми.
package common

import (
	"strconv"
	"sync"
)

// KeyedMutex — набор мьютексов, создаваемых по ключу лениво.
// Мьютексы не удаляются: множество активных пользователей ограничено,
// а пустой sync.Mutex почти ничего не занимает.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex создаёт пустой набор мьютексов.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock блокирует мьютекс для заданного ключа.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock снимает блокировку для ключа.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

// LockPair блокирует два ключа в детерминированном порядке.
// Нужно для ограблений: берём и актёра, и владельца бизнеса,
// порядок по возрастанию ключа исключает взаимную блокировку.
func (k *KeyedMutex) LockPair(a, b string) {
	if a == b {
		k.Lock(a)
		return
	}
	if a > b {
		a, b = b, a
	}
	k.Lock(a)
	k.Lock(b)
}

// UnlockPair снимает блокировки, взятые LockPair.
func (k *KeyedMutex) UnlockPair(a, b string) {
	if a == b {
		k.Unlock(a)
		return
	}
	if a > b {
		a, b = b, a
	}
	k.Unlock(b)
	k.Unlock(a)
}

// UserKey строит ключ блокировки для пары (гильдия, пользователь).
func UserKey(guildID, userID int64) string {
	return strconv.FormatInt(guildID, 10) + ":" + strconv.FormatInt(userID, 10)
}
