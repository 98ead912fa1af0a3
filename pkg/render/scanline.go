package render

import (
	"math"
)

// attrs are the quantities interpolated across a face. Texture
// coordinates are premultiplied by depth so dividing by the interpolated
// depth gives perspective-correct texels.
type attrs struct {
	x, depth, diffuse float64
	tu, tv            float64
	sx, sy, sf        float64
}

func (a *attrs) add(d *attrs) {
	a.x += d.x
	a.depth += d.depth
	a.diffuse += d.diffuse
	a.tu += d.tu
	a.tv += d.tv
	a.sx += d.sx
	a.sy += d.sy
	a.sf += d.sf
}

func (a *attrs) addScaled(d *attrs, k float64) {
	a.x += d.x * k
	a.depth += d.depth * k
	a.diffuse += d.diffuse * k
	a.tu += d.tu * k
	a.tv += d.tv * k
	a.sx += d.sx * k
	a.sy += d.sy * k
	a.sf += d.sf * k
}

// slope returns (b-a)/span.
func slope(a, b *attrs, span float64) attrs {
	inv := 1 / span
	return attrs{
		x:       (b.x - a.x) * inv,
		depth:   (b.depth - a.depth) * inv,
		diffuse: (b.diffuse - a.diffuse) * inv,
		tu:      (b.tu - a.tu) * inv,
		tv:      (b.tv - a.tv) * inv,
		sx:      (b.sx - a.sx) * inv,
		sy:      (b.sy - a.sy) * inv,
		sf:      (b.sf - a.sf) * inv,
	}
}

func (f *face) vertex(j int) attrs {
	d := f.depth[j]
	return attrs{
		x:       f.x[j],
		depth:   d,
		diffuse: f.diffuse[j],
		tu:      f.texU[j] * d,
		tv:      f.texV[j] * d,
		sx:      f.specX[j],
		sy:      f.specY[j],
		sf:      f.specF[j],
	}
}

// rowOf returns the first pixel row whose centre is at or below y.
func rowOf(y float64) int {
	return int(math.Ceil(y - 0.5))
}

// edge walks one side of a polygon from the top vertex downwards.
type edge struct {
	step     int // +1 or -1 through the vertex list
	from, to int
	end      int // first row not covered by the current segment
	cur, d   attrs
}

// advance moves e onto the segment covering row. It reports false if the
// polygon has no such segment on this side.
func (e *edge) advance(f *face, row int) bool {
	n := len(f.x)
	moved := false
	for steps := 0; e.end <= row; steps++ {
		if steps == n {
			return false
		}
		e.from = e.to
		e.to = (e.to + e.step + n) % n
		e.end = rowOf(f.y[e.to])
		moved = true
	}
	if moved {
		a, b := f.vertex(e.from), f.vertex(e.to)
		e.d = slope(&a, &b, f.y[e.to]-f.y[e.from])
		e.cur = a
		e.cur.addScaled(&e.d, float64(row)+0.5-f.y[e.from])
	}
	return true
}

// shader turns interpolated attributes into a pixel colour.
type shader struct {
	r, g, b float64
	texture *TextureImage
	phong   *PhongTable
}

func (s *shader) shade(a *attrs) uint32 {
	r, g, b := s.r, s.g, s.b
	if s.texture != nil {
		t := s.texture.Texel(int(math.Floor(a.tu/a.depth)), int(math.Floor(a.tv/a.depth)))
		r, g, b = float64(t>>16&0xFF), float64(t>>8&0xFF), float64(t&0xFF)
	}

	k := a.diffuse / 256
	r, g, b = r*k, g*k, b*k

	if s.phong != nil {
		h := float64(s.phong.At(a.sx, a.sy)) * a.sf / 256
		r, g, b = r+h, g+h, b+h
	}
	return PackARGB(channel(r), channel(g), channel(b))
}

func channel(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(v + 0.5)
}

// target is the frame being drawn.
type target struct {
	width, height int
	pixels        []uint32
	depth         []float64
	written       int
}

// fill rasterizes f with the pixel-centre rule: a pixel is covered when
// its centre lies inside the polygon, with left and top edges inclusive.
// Faces that fall within a single pixel row are drawn as a line.
func (t *target) fill(f *face, s *shader) {
	top := 0
	minY, maxY := f.y[0], f.y[0]
	for j := 1; j < len(f.y); j++ {
		if f.y[j] < minY {
			minY, top = f.y[j], j
		}
		maxY = max(maxY, f.y[j])
	}

	if math.Floor(minY) == math.Floor(maxY) {
		t.line(f, s, int(math.Floor(minY)))
		return
	}

	row := rowOf(minY)
	last := min(rowOf(maxY), t.height)
	left := edge{step: -1, to: top, end: row}
	right := edge{step: 1, to: top, end: row}

	for row < last {
		if !left.advance(f, row) || !right.advance(f, row) {
			return
		}
		next := min(left.end, right.end, last)
		t.rows(row, next, &left, &right, s)

		k := float64(next - row)
		left.cur.addScaled(&left.d, k)
		right.cur.addScaled(&right.d, k)
		row = next
	}
}

// rows fills rows [from, to) between two edges without moving them.
func (t *target) rows(from, to int, left, right *edge, s *shader) {
	l, r := left.cur, right.cur
	if from < 0 {
		k := float64(min(to, 0) - from)
		l.addScaled(&left.d, k)
		r.addScaled(&right.d, k)
		from = min(to, 0)
	}
	for y := from; y < to; y++ {
		t.span(y, &l, &r, s)
		l.add(&left.d)
		r.add(&right.d)
	}
}

// span fills the pixels of row y whose centres lie in [a.x, b.x).
func (t *target) span(y int, a, b *attrs, s *shader) {
	if a.x > b.x {
		a, b = b, a
	}
	x0 := int(math.Ceil(a.x - 0.5))
	x1 := int(math.Ceil(b.x - 0.5))
	if x1 <= x0 {
		return
	}

	// The highlight is linear across the row, so weak ends keep it weak.
	if s.phong != nil && a.sf <= specularThreshold && b.sf <= specularThreshold {
		plain := *s
		plain.phong = nil
		s = &plain
	}

	d := slope(a, b, b.x-a.x)
	v := *a
	v.addScaled(&d, float64(x0)+0.5-a.x)
	t.run(y, x0, x1, v, &d, s)
}

// line draws a face flattened into one row, from its leftmost to its
// rightmost vertex, always covering at least one pixel.
func (t *target) line(f *face, s *shader, y int) {
	if y < 0 || y >= t.height {
		return
	}
	lo, hi := 0, 0
	for j := 1; j < len(f.x); j++ {
		if f.x[j] < f.x[lo] {
			lo = j
		}
		if f.x[j] > f.x[hi] {
			hi = j
		}
	}
	a, b := f.vertex(lo), f.vertex(hi)

	x0 := int(math.Floor(a.x))
	x1 := max(int(math.Ceil(b.x)), x0+1)

	var d attrs
	if w := b.x - a.x; w > 0 {
		d = slope(&a, &b, w)
	}
	v := a
	v.addScaled(&d, float64(x0)+0.5-a.x)
	t.run(y, x0, x1, v, &d, s)
}

// run depth-tests and shades pixels [x0, x1) of row y, starting with v and
// stepping by d per pixel. Columns outside the frame are clipped.
func (t *target) run(y, x0, x1 int, v attrs, d *attrs, s *shader) {
	if x0 < 0 {
		v.addScaled(d, float64(-x0))
		x0 = 0
	}
	x1 = min(x1, t.width)

	i := y*t.width + x0
	for x := x0; x < x1; x++ {
		if v.depth > 0 {
			if z := 1 / v.depth; z < t.depth[i] {
				t.depth[i] = z
				t.pixels[i] = s.shade(&v)
				t.written++
			}
		}
		v.add(d)
		i++
	}
}
