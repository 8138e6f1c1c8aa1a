package renderer

import (
	"math"
	"testing"

	"github.com/richinsley/gomilkdrop/pipeline"
)

func TestWarpGridIdentity(t *testing.T) {
	tris := warpGrid(3, 2, nil, 0.5, 1, 1)
	if len(tris) != 2*1*6 {
		t.Fatalf("got %d vertices, want 12", len(tris))
	}
	for _, v := range tris {
		if v.u != v.u0 || v.v != v.v0 {
			t.Errorf("identity grid warped uv: %+v", v)
		}
		if v.r != 0.5 || v.a != 1 {
			t.Errorf("decay tint = %v/%v", v.r, v.a)
		}
		if math.Abs(float64(v.x-(v.u0*2-1))) > 1e-6 {
			t.Errorf("position %v does not match uv %v", v.x, v.u0)
		}
	}
	// first triangle starts at the bottom-left corner
	if tris[0].x != -1 || tris[0].y != -1 {
		t.Errorf("first vertex at %v,%v", tris[0].x, tris[0].y)
	}
}

func TestWarpGridMesh(t *testing.T) {
	m := pipeline.NewMesh(2, 2)
	m.SetX(1, 1, 0.25)
	m.SetY(1, 1, 0.75)
	tris := warpGrid(DefaultGridWidth, DefaultGridHeight, m, 1, 1, 1)
	if len(tris) != 6 {
		t.Fatalf("mesh size ignored: %d vertices", len(tris))
	}
	var found bool
	for _, v := range tris {
		if v.u0 == 1 && v.v0 == 1 {
			found = true
			if v.u != 0.25 || v.v != 0.75 {
				t.Errorf("top-right warped uv = %v,%v", v.u, v.v)
			}
		}
	}
	if !found {
		t.Error("top-right corner missing")
	}
}

func TestWarpGridRadius(t *testing.T) {
	tris := warpGrid(3, 3, nil, 1, 1, 1)
	for _, v := range tris {
		if v.u0 == 0.5 && v.v0 == 0.5 && v.rad != 0 {
			t.Errorf("centre radius = %v", v.rad)
		}
		if v.u0 == 1 && v.v0 == 1 && math.Abs(float64(v.rad-1)) > 1e-6 {
			t.Errorf("corner radius = %v", v.rad)
		}
	}
	if warpGrid(1, 5, nil, 1, 1, 1) != nil {
		t.Error("degenerate grid built")
	}
}

func TestFullscreenQuad(t *testing.T) {
	q := fullscreenQuad(0.5)
	if len(q) != 6 {
		t.Fatalf("got %d vertices", len(q))
	}
	flat := flatten(q)
	if len(flat) != 6*floatsPerVertex {
		t.Fatalf("flatten length = %d", len(flat))
	}
	for _, v := range q {
		if v.u != (v.x+1)/2 || v.v != (v.y+1)/2 || v.a != 0.5 {
			t.Errorf("quad vertex %+v", v)
		}
	}
}
