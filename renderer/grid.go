package renderer

import (
	"math"

	"github.com/richinsley/gomilkdrop/pipeline"
)

// vertex matches the attribute layout shared by every program: position,
// color, texture (warped uv in xy, original uv in zw) and radius/angle.
type vertex struct {
	x, y       float32
	r, g, b, a float32
	u, v       float32
	u0, v0     float32
	rad, ang   float32
}

const (
	floatsPerVertex = 12
	vertexStride    = floatsPerVertex * 4
)

// DefaultGridWidth and DefaultGridHeight are the warp grid resolution used
// when a preset has no static mesh.
const (
	DefaultGridWidth  = 48
	DefaultGridHeight = 36
)

// warpGrid builds the warp mesh as a triangle list. With a mesh of the same
// point count the warped uv comes from the mesh, otherwise it is the
// identity. Every vertex is tinted by decay.
func warpGrid(gx, gy int, mesh *pipeline.Mesh, decay, aspectX, aspectY float32) []vertex {
	if mesh != nil {
		gx, gy = mesh.Width(), mesh.Height()
	}
	if gx < 2 || gy < 2 {
		return nil
	}

	points := make([]vertex, gx*gy)
	for j := 0; j < gy; j++ {
		for i := 0; i < gx; i++ {
			u := float32(i) / float32(gx-1)
			v := float32(j) / float32(gy-1)
			dx := (u*2 - 1) * aspectX
			dy := (v*2 - 1) * aspectY
			pt := vertex{
				x: u*2 - 1, y: v*2 - 1,
				r: decay, g: decay, b: decay, a: 1,
				u: u, v: v, u0: u, v0: v,
				rad: float32(math.Sqrt(float64(dx*dx+dy*dy))) / float32(math.Sqrt2),
				ang: float32(math.Atan2(float64(dy), float64(dx))),
			}
			if mesh != nil {
				pt.u, pt.v = mesh.X(i, j), mesh.Y(i, j)
			}
			points[i+j*gx] = pt
		}
	}

	tris := make([]vertex, 0, (gx-1)*(gy-1)*6)
	for j := 0; j < gy-1; j++ {
		for i := 0; i < gx-1; i++ {
			a := points[i+j*gx]
			b := points[i+1+j*gx]
			c := points[i+(j+1)*gx]
			d := points[i+1+(j+1)*gx]
			tris = append(tris, a, b, d, a, d, c)
		}
	}
	return tris
}

// fullscreenQuad covers clip space with uv running 0..1.
func fullscreenQuad(alpha float32) []vertex {
	corner := func(x, y float32) vertex {
		u, v := (x+1)*0.5, (y+1)*0.5
		return vertex{x: x, y: y, r: 1, g: 1, b: 1, a: alpha, u: u, v: v, u0: u, v0: v}
	}
	bl, br, tl, tr := corner(-1, -1), corner(1, -1), corner(-1, 1), corner(1, 1)
	return []vertex{tl, bl, br, tl, br, tr}
}

func flatten(vs []vertex) []float32 {
	out := make([]float32, 0, len(vs)*floatsPerVertex)
	for _, v := range vs {
		out = append(out, v.x, v.y, v.r, v.g, v.b, v.a, v.u, v.v, v.u0, v.v0, v.rad, v.ang)
	}
	return out
}
