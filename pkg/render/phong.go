package render

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPhongCacheSize bounds the number of distinct exponents kept.
const DefaultPhongCacheSize = 32

// PhongTable maps a quantized reflection direction to a highlight intensity
// in 0..256. It is indexed [y][x]; the centre [128][128] is the direction
// straight back at the viewer.
type PhongTable [256][256]uint16

// NewPhongTable builds the table for a specular exponent. Entry
// [128±j][128±i] holds 256·max(0, 1-√((i/128)²+(j/128)²))^exponent.
func NewPhongTable(exponent int) *PhongTable {
	t := new(PhongTable)
	e := float64(exponent)

	for j := 0; j <= 128; j++ {
		y := float64(j) / 128
		for i := 0; i <= 128; i++ {
			x := float64(i) / 128
			c := math.Max(0, 1-math.Sqrt(x*x+y*y))
			v := uint16(math.Round(256 * math.Pow(c, e)))

			t.set(128-j, 128-i, v)
			t.set(128-j, 128+i, v)
			t.set(128+j, 128-i, v)
			t.set(128+j, 128+i, v)
		}
	}
	return t
}

func (t *PhongTable) set(row, col int, v uint16) {
	if row < 256 && col < 256 {
		t[row][col] = v
	}
}

// At samples the table with 16-bit coordinates, as produced by the
// lighting pass.
func (t *PhongTable) At(sx, sy float64) uint16 {
	x := min(max(int(sx)>>8, 0), 255)
	y := min(max(int(sy)>>8, 0), 255)
	return t[y][x]
}

// PhongCache shares tables between faces with the same exponent. While an
// exponent stays cached, every lookup returns the same table.
type PhongCache struct {
	mu     sync.Mutex
	tables *lru.Cache[int, *PhongTable]
}

// NewPhongCache creates a cache holding at most size tables.
func NewPhongCache(size int) *PhongCache {
	// lru.New only fails for non-positive sizes.
	tables, _ := lru.New[int, *PhongTable](max(1, size))
	return &PhongCache{tables: tables}
}

// Table returns the table for exponent, building it on first use.
func (c *PhongCache) Table(exponent int) *PhongTable {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables.Get(exponent); ok {
		return t
	}
	t := NewPhongTable(exponent)
	c.tables.Add(exponent, t)
	return t
}

// Len returns the number of cached tables.
func (c *PhongCache) Len() int {
	return c.tables.Len()
}
