package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func line(id string, price int64, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID: id,
		Name:      "product " + id,
		Price:     decimal.NewFromInt(price),
		Image:     "https://img.example.com/" + id + ".png",
		Quantity:  qty,
	}
}

func TestStore_AddItem(t *testing.T) {
	t.Run("repeated product increments by one", func(t *testing.T) {
		s := NewStore(nil, "")
		_ = s.AddItem(line("p1", 100, 1))
		_ = s.AddItem(line("p1", 100, 1))

		lines := s.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		if lines[0].Quantity != 2 {
			t.Errorf("expected quantity 2, got %d", lines[0].Quantity)
		}
	})

	t.Run("incoming quantity ignored for existing line", func(t *testing.T) {
		s := NewStore(nil, "")
		_ = s.AddItem(line("p1", 100, 3))
		_ = s.AddItem(line("p1", 100, 5))

		if got := s.Lines()[0].Quantity; got != 4 {
			t.Errorf("expected quantity 4, got %d", got)
		}
	})

	t.Run("count matches per-product sums", func(t *testing.T) {
		s := NewStore(nil, "")
		ids := []string{"a", "b", "a", "c", "a", "b"}
		for _, id := range ids {
			_ = s.AddItem(line(id, 10, 1))
		}

		if s.Count() != len(ids) {
			t.Errorf("expected count %d, got %d", len(ids), s.Count())
		}

		seen := map[string]int{}
		for _, l := range s.Lines() {
			seen[l.ProductID]++
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("product %s appears %d times", id, n)
			}
		}
		if len(seen) != 3 {
			t.Errorf("expected 3 distinct lines, got %d", len(seen))
		}
	})
}

func TestStore_Totals(t *testing.T) {
	s := NewStore(nil, "")
	_ = s.AddItem(line("p1", 100, 2))
	_ = s.AddItem(line("p2", 50, 1))

	if !s.Total().Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected total 250, got %s", s.Total())
	}
	if s.Count() != 3 {
		t.Errorf("expected count 3, got %d", s.Count())
	}

	_ = s.UpdateQuantity("p2", 4)
	if !s.Total().Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected total 400 after update, got %s", s.Total())
	}

	_ = s.RemoveItem("p1")
	if !s.Total().Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected total 200 after remove, got %s", s.Total())
	}
}

func TestStore_UpdateQuantity(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		s := NewStore(nil, "")
		_ = s.AddItem(line("p1", 100, 2))

		if err := s.UpdateQuantity("p1", q); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.Lines()[0].Quantity; got != 2 {
			t.Errorf("quantity %d: expected 2 unchanged, got %d", q, got)
		}
	}

	s := NewStore(nil, "")
	_ = s.AddItem(line("p1", 100, 1))
	_ = s.UpdateQuantity("missing", 3)
	if len(s.Lines()) != 1 || s.Count() != 1 {
		t.Errorf("update of unknown product changed the cart: %v", s.Lines())
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(nil, "")
	_ = s.AddItem(line("p1", 100, 1))
	_ = s.Clear()

	if !s.Empty() || s.Count() != 0 || !s.Total().IsZero() {
		t.Errorf("expected empty cart, got %v", s.Lines())
	}
}

func TestStore_Persistence(t *testing.T) {
	t.Run("round trip preserves order and values", func(t *testing.T) {
		storage := NewMemoryStorage()
		s := NewStore(storage, "cart")
		if err := s.Hydrate(); err != nil {
			t.Fatalf("hydrate: %v", err)
		}
		_ = s.AddItem(line("p2", 50, 1))
		_ = s.AddItem(line("p1", 100, 2))
		_ = s.AddItem(domain.CartLine{ProductID: "p3", Name: "cents", Price: decimal.RequireFromString("19.99"), Quantity: 1})

		reloaded := NewStore(storage, "cart")
		if err := reloaded.Hydrate(); err != nil {
			t.Fatalf("hydrate: %v", err)
		}

		want, got := s.Lines(), reloaded.Lines()
		if len(want) != len(got) {
			t.Fatalf("expected %d lines, got %d", len(want), len(got))
		}
		for i := range want {
			if want[i].ProductID != got[i].ProductID ||
				want[i].Name != got[i].Name ||
				want[i].Image != got[i].Image ||
				want[i].Quantity != got[i].Quantity ||
				!want[i].Price.Equal(got[i].Price) {
				t.Errorf("line %d: expected %+v, got %+v", i, want[i], got[i])
			}
		}
	})

	t.Run("mutations before hydrate are not saved", func(t *testing.T) {
		storage := NewMemoryStorage()
		s := NewStore(storage, "cart")
		_ = s.AddItem(line("p1", 100, 1))

		if _, ok, _ := storage.Load("cart"); ok {
			t.Fatal("expected nothing stored before hydrate")
		}

		_ = s.Hydrate()
		_ = s.AddItem(line("p2", 10, 1))
		if _, ok, _ := storage.Load("cart"); !ok {
			t.Fatal("expected cart stored after hydrate")
		}
	})

	t.Run("hydrates only once", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save("cart", []byte(`[{"id":"p1","name":"a","price":"5","image":"","quantity":1}]`))

		s := NewStore(storage, "cart")
		_ = s.Hydrate()
		_ = storage.Save("cart", []byte(`[]`))
		_ = s.Hydrate()

		if s.Count() != 1 {
			t.Errorf("second hydrate replaced the lines: %v", s.Lines())
		}
	})

	t.Run("corrupt data yields empty cart", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save("cart", []byte(`{not json`))

		s := NewStore(storage, "cart")
		err := s.Hydrate()
		if !errors.Is(err, ErrCorruptCart) {
			t.Fatalf("expected ErrCorruptCart, got %v", err)
		}
		if !s.Empty() || !s.Loaded() {
			t.Fatal("expected an empty, loaded cart")
		}

		_ = s.AddItem(line("p1", 1, 1))
		data, _, _ := storage.Load("cart")
		if string(data) == `{not json` {
			t.Error("expected corrupt value to be overwritten")
		}
	})
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(nil, "")

	var calls int
	var last []domain.CartLine
	unsubscribe := s.Subscribe(func(lines []domain.CartLine) {
		calls++
		last = lines
	})

	_ = s.AddItem(line("p1", 100, 1))
	_ = s.AddItem(line("p1", 100, 1))
	_ = s.UpdateQuantity("p1", 0)

	if calls != 2 {
		t.Errorf("expected 2 notifications, got %d", calls)
	}
	if len(last) != 1 || last[0].Quantity != 2 {
		t.Errorf("unexpected snapshot %v", last)
	}

	unsubscribe()
	_ = s.Clear()
	if calls != 2 {
		t.Errorf("listener called after unsubscribe")
	}
}
