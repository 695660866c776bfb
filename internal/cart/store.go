// Package cart holds the shopper's in-progress selection. The Store is a
// plain state container; where the lines are kept between requests is up to
// the Storage it is given.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const DefaultStorageKey = "aethelnova-cart"

var ErrCorruptCart = errors.New("corrupt cart data")

// Storage persists the serialized line list under a key. Load reports
// ok=false when nothing has been stored yet.
type Storage interface {
	Load(key string) (data []byte, ok bool, err error)
	Save(key string, data []byte) error
}

type Listener func(lines []domain.CartLine)

// Store is not safe for concurrent use.
type Store struct {
	key       string
	storage   Storage
	lines     []domain.CartLine
	loaded    bool
	listeners map[int]Listener
	nextID    int
}

// NewStore returns an empty cart. A nil storage keeps the cart in memory only.
func NewStore(storage Storage, key string) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	return &Store{
		key:       key,
		storage:   storage,
		lines:     []domain.CartLine{},
		listeners: make(map[int]Listener),
	}
}

// Hydrate loads the stored lines once. Until it has run, mutations are not
// persisted. Corrupt data leaves the cart empty and returns ErrCorruptCart;
// the next mutation overwrites it.
func (s *Store) Hydrate() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	if s.storage == nil {
		return nil
	}

	data, ok, err := s.storage.Load(s.key)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	s.lines = lines
	s.notify()
	return nil
}

func (s *Store) Loaded() bool {
	return s.loaded
}

// AddItem bumps the quantity of an existing line by one, ignoring the
// incoming quantity, or appends the line as given.
func (s *Store) AddItem(line domain.CartLine) error {
	if i := s.index(line.ProductID); i >= 0 {
		s.lines[i].Quantity++
		return s.commit()
	}

	if line.Quantity < 1 {
		line.Quantity = 1
	}
	s.lines = append(s.lines, line)
	return s.commit()
}

func (s *Store) RemoveItem(productID string) error {
	i := s.index(productID)
	if i < 0 {
		return nil
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	return s.commit()
}

// UpdateQuantity sets an absolute quantity. Values below one are ignored.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	i := s.index(productID)
	if i < 0 {
		return nil
	}
	s.lines[i].Quantity = quantity
	return s.commit()
}

func (s *Store) Clear() error {
	s.lines = []domain.CartLine{}
	return s.commit()
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	return slices.Clone(s.lines)
}

func (s *Store) Count() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Total() decimal.Decimal {
	return domain.LinesTotal(s.lines)
}

func (s *Store) Empty() bool {
	return len(s.lines) == 0
}

// Subscribe registers fn to run after every change and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *Store) index(productID string) int {
	return slices.IndexFunc(s.lines, func(l domain.CartLine) bool {
		return l.ProductID == productID
	})
}

func (s *Store) commit() error {
	s.notify()

	if !s.loaded || s.storage == nil {
		return nil
	}

	data, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Save(s.key, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) notify() {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := s.Lines()
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}
