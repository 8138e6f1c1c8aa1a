package pipeline

// Mesh is a gx*gy grid of warp coordinates stored row-major in flat
// buffers. Coordinates outside the grid wrap around the flat index instead
// of faulting, so (gx, 0) aliases (0, 1).
type Mesh struct {
	gx, gy int
	x, y   []float32
}

// NewMesh allocates a zeroed mesh. Non-positive dimensions give an empty
// mesh whose reads return 0 and whose writes are dropped.
func NewMesh(gx, gy int) *Mesh {
	if gx <= 0 || gy <= 0 {
		return &Mesh{}
	}
	return &Mesh{gx: gx, gy: gy, x: make([]float32, gx*gy), y: make([]float32, gx*gy)}
}

func (m *Mesh) Width() int  { return m.gx }
func (m *Mesh) Height() int { return m.gy }

func (m *Mesh) offset(x, y int) int {
	n := m.gx * m.gy
	if n == 0 {
		return -1
	}
	o := (x + y*m.gx) % n
	if o < 0 {
		o += n
	}
	return o
}

func (m *Mesh) X(x, y int) float32 { return get(m.x, m.offset(x, y)) }
func (m *Mesh) Y(x, y int) float32 { return get(m.y, m.offset(x, y)) }

func (m *Mesh) SetX(x, y int, v float32) { set(m.x, m.offset(x, y), v) }
func (m *Mesh) SetY(x, y int, v float32) { set(m.y, m.offset(x, y), v) }

func get(buf []float32, o int) float32 {
	if o < 0 {
		return 0
	}
	return buf[o]
}

func set(buf []float32, o int, v float32) {
	if o >= 0 {
		buf[o] = v
	}
}

// SameSize reports whether two meshes have identical dimensions.
func (m *Mesh) SameSize(o *Mesh) bool {
	return m != nil && o != nil && m.gx == o.gx && m.gy == o.gy
}
