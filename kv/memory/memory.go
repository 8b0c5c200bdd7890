// Package memory is an in-process kv.Store with Redis list and expiry semantics.
package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Store хранит данные в памяти процесса
type Store struct {
	mx     sync.RWMutex
	values map[string]entry
	lists  map[string][]string
	now    func() time.Time
}

// NewStore создаёт пустой Store
func NewStore() *Store {
	return &Store{
		values: make(map[string]entry),
		lists:  make(map[string][]string),
		now:    time.Now,
	}
}

// Set сохраняет значение с опциональным TTL
func (s *Store) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	e := entry{value: value}
	if expiration > 0 {
		e.expiresAt = s.now().Add(expiration)
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	s.values[key] = e
	return nil
}

// Exists проверяет наличие неистёкшего ключа
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if _, ok := s.lists[key]; ok {
		return true, nil
	}
	e, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.values, key)
		return false, nil
	}
	return true, nil
}

// RPush добавляет значения в конец списка
func (s *Store) RPush(_ context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	s.lists[key] = append(s.lists[key], values...)
	return nil
}

// LRange returns a copy of list items in [start, stop]; negative indexes count from the end.
func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	list := s.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

// Ping всегда успешен
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close не выполняет операций
func (s *Store) Close() error {
	return nil
}
