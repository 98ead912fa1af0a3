package render

import (
	"testing"
)

func TestPhongTableShape(t *testing.T) {
	table := NewPhongTable(8)

	if got := table[128][128]; got != 256 {
		t.Errorf("centre = %d, want 256", got)
	}
	if got := table[0][0]; got != 0 {
		t.Errorf("corner = %d, want 0", got)
	}
	if got := table[128][0]; got != 0 {
		t.Errorf("left edge = %d, want 0", got)
	}

	// Symmetric about the centre in both axes.
	for _, d := range []int{1, 7, 40, 100} {
		if table[128][128-d] != table[128][128+d] || table[128-d][128] != table[128+d][128] {
			t.Errorf("asymmetric at offset %d", d)
		}
		if table[128][128+d] != table[128+d][128] {
			t.Errorf("not radial at offset %d", d)
		}
	}

	// Falls off moving away from the centre.
	prev := table[128][128]
	for x := 129; x < 256; x++ {
		if table[128][x] > prev {
			t.Fatalf("table[128][%d] = %d rises above %d", x, table[128][x], prev)
		}
		prev = table[128][x]
	}
}

func TestPhongTableExponent(t *testing.T) {
	soft := NewPhongTable(4)
	sharp := NewPhongTable(32)

	if soft[128][140] <= sharp[128][140] {
		t.Errorf("higher exponent should narrow the highlight: exp 4 = %d, exp 32 = %d",
			soft[128][140], sharp[128][140])
	}
	if soft[128][128] != 256 || sharp[128][128] != 256 {
		t.Error("centre should be 256 for every exponent")
	}
}

func TestPhongTableAt(t *testing.T) {
	table := NewPhongTable(8)

	tests := []struct {
		name   string
		sx, sy float64
		want   uint16
	}{
		{"centre", specularCenter, specularCenter, 256},
		{"top left corner", 0, 0, table[0][0]},
		{"clamps high", 1e9, specularCenter, table[128][255]},
		{"clamps low", -5, specularCenter, table[128][0]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := table.At(tc.sx, tc.sy); got != tc.want {
				t.Errorf("At(%v, %v) = %d, want %d", tc.sx, tc.sy, got, tc.want)
			}
		})
	}
}

func TestPhongCacheIdentity(t *testing.T) {
	c := NewPhongCache(4)

	a := c.Table(8)
	if b := c.Table(8); a != b {
		t.Error("same exponent should return the same table")
	}
	if c.Table(16) == a {
		t.Error("different exponents should not share a table")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestPhongCacheEviction(t *testing.T) {
	c := NewPhongCache(1)
	c.Table(8)
	c.Table(16)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func BenchmarkNewPhongTable(b *testing.B) {
	for b.Loop() {
		_ = NewPhongTable(16)
	}
}
