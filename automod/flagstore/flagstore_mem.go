package flagstore

import (
	"context"
	"slices"
	"sync"
)

type MemFlagStore struct {
	lk   sync.Mutex
	Data map[string][]string
}

func NewMemFlagStore() *MemFlagStore {
	return &MemFlagStore{
		Data: make(map[string][]string),
	}
}

func (s *MemFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	v, ok := s.Data[key]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(v), nil
}

// flags keep the order they were first added in
func (s *MemFlagStore) Add(ctx context.Context, key string, flags []string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	v := s.Data[key]
	for _, f := range flags {
		if !slices.Contains(v, f) {
			v = append(v, f)
		}
	}
	s.Data[key] = v
	return nil
}

// does not error if flags not in set
func (s *MemFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	s.lk.Lock()
	defer s.lk.Unlock()
	v, ok := s.Data[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, f := range v {
		if !slices.Contains(flags, f) {
			out = append(out, f)
		}
	}
	s.Data[key] = out
	return nil
}
