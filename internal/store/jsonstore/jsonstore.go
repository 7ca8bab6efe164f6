package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/idilsaglam/medimanage/internal/kv"
	"github.com/idilsaglam/medimanage/internal/model"
	"github.com/rs/zerolog"
)

// JSON-backed medication list. The whole list is one blob under a fixed key
// and is rewritten after every mutation. Not safe for concurrent use; the
// list belongs to one UI session at a time.

const Key = "medications"

type Store struct {
	kv    kv.Store
	log   zerolog.Logger
	items []model.Medication
}

func New(store kv.Store, log zerolog.Logger) *Store {
	return &Store{
		kv:    store,
		log:   log.With().Str("component", "jsonstore").Logger(),
		items: []model.Medication{},
	}
}

func Encode(items []model.Medication) ([]byte, error) {
	if items == nil {
		items = []model.Medication{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

func Decode(b []byte) ([]model.Medication, error) {
	var items []model.Medication
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if items == nil {
		items = []model.Medication{}
	}
	return items, nil
}

// Load replaces the in-memory list with the stored one. A missing or
// unreadable blob yields an empty list; the failure is only logged.
// Records stored without an id get one, and the list is saved back once.
func (s *Store) Load(ctx context.Context) []model.Medication {
	s.items = []model.Medication{}

	b, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("load failed, starting empty")
		}
		return s.Items()
	}
	items, err := Decode(b)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored list is malformed, starting empty")
		return s.Items()
	}

	backfilled := 0
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
			backfilled++
		}
	}
	s.items = items
	if backfilled > 0 {
		s.log.Info().Int("count", backfilled).Msg("assigned ids to stored records")
		s.Save(ctx, s.items)
	}
	return s.Items()
}

// Save replaces the in-memory list and writes it out whole. Failures are
// logged and otherwise ignored.
func (s *Store) Save(ctx context.Context, items []model.Medication) {
	s.items = append([]model.Medication{}, items...)
	b, err := Encode(s.items)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode failed, write skipped")
		return
	}
	if err := s.kv.Put(ctx, Key, b); err != nil {
		s.log.Warn().Err(err).Msg("write failed")
		return
	}
	s.log.Debug().Int("count", len(s.items)).Msg("saved")
}

// Items returns a copy of the current list.
func (s *Store) Items() []model.Medication {
	return append([]model.Medication{}, s.items...)
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Get(i int) (model.Medication, bool) {
	if i < 0 || i >= len(s.items) {
		return model.Medication{}, false
	}
	return s.items[i], true
}

// IndexOf returns the position of the first record matching m, or -1.
func (s *Store) IndexOf(m model.Medication) int {
	for i, it := range s.items {
		if it.Matches(m) {
			return i
		}
	}
	return -1
}

func (s *Store) Append(ctx context.Context, m model.Medication) {
	s.Save(ctx, append(s.Items(), m))
}

func (s *Store) Replace(ctx context.Context, i int, m model.Medication) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("index out of range: have %d, got %d", len(s.items), i)
	}
	items := s.Items()
	items[i] = m
	s.Save(ctx, items)
	return nil
}

// Remove drops the first record matching m. It reports whether one was found.
func (s *Store) Remove(ctx context.Context, m model.Medication) bool {
	i := s.IndexOf(m)
	if i < 0 {
		return false
	}
	items := s.Items()
	items = append(items[:i], items[i+1:]...)
	s.Save(ctx, items)
	return true
}
