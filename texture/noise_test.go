package texture

import (
	"math/rand"
	"testing"
)

func TestNoiseDeterministicAndBounded(t *testing.T) {
	for x := int32(-50); x < 50; x++ {
		v := noise1(x)
		if v < 0 || v >= 1 {
			t.Fatalf("noise1(%d) = %v, want [0,1)", x, v)
		}
		if v != noise1(x) {
			t.Fatalf("noise1(%d) not deterministic", x)
		}
	}
}

func TestInterpolatedNoiseMatchesLattice(t *testing.T) {
	for x := int32(0); x < 8; x++ {
		for y := int32(0); y < 8; y++ {
			if got, want := interpolatedNoise(float32(x), float32(y)), noise2(x, y); got != want {
				t.Fatalf("interpolatedNoise(%d,%d) = %v, want lattice value %v", x, y, got, want)
			}
		}
	}
}

func TestNoise2DAlpha(t *testing.T) {
	px := Noise2D(32, 0.25)
	if len(px) != 32*32*4 {
		t.Fatalf("len = %d", len(px))
	}
	for i := 3; i < len(px); i += 4 {
		if px[i] != 1 {
			t.Fatalf("alpha at %d = %v, want 1", i, px[i])
		}
		if px[i-3] != px[i-2] || px[i-2] != px[i-1] {
			t.Fatalf("texel %d is not grey", i/4)
		}
	}
}

func TestNoise3DSize(t *testing.T) {
	px := Noise3D(8, 4, rand.New(rand.NewSource(3)))
	if len(px) != 8*8*8*4 {
		t.Fatalf("len = %d", len(px))
	}
	for i := 3; i < len(px); i += 4 {
		if px[i] != 1 {
			t.Fatalf("alpha at %d = %v, want 1", i, px[i])
		}
	}
}
