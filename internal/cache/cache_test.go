package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set(CategoriesKey, []string{"Dining", "Groceries"})

	v, ok := c.Get(CategoriesKey)
	if !ok {
		t.Fatal("expected cache hit after Set")
	}
	names, ok := v.([]string)
	if !ok || len(names) != 2 {
		t.Errorf("cached value = %#v", v)
	}
}

func TestCache_Miss(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for unset key")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set(CategoriesKey, "a")
	c.Set(MonthKey(2024, 3), "b")

	c.Invalidate()

	if _, ok := c.Get(CategoriesKey); ok {
		t.Error("categories survived Invalidate")
	}
	if _, ok := c.Get(MonthKey(2024, 3)); ok {
		t.Error("month entry survived Invalidate")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, err := New(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		year, month int
		want        string
	}{
		{2024, 3, "month:2024-03"},
		{2024, 12, "month:2024-12"},
		{999, 1, "month:0999-01"},
	}
	for _, tt := range tests {
		if got := MonthKey(tt.year, tt.month); got != tt.want {
			t.Errorf("MonthKey(%d, %d) = %q, want %q", tt.year, tt.month, got, tt.want)
		}
	}
}
