package texture

import "math/rand"

// Value noise used to fill the noise_* and noisevol_* textures. Integer
// arithmetic wraps at 32 bits, which the hash relies on.

func noise1(x int32) float32 {
	x = (x << 13) ^ x
	return float32(float64((x*(x*x*15731+789221)+1376312589)&0x7fffffff) / 2147483648.0)
}

func noise2(x, y int32) float32 { return noise1(x + y*57) }

func noise3(x, y, z int32) float32 { return noise1(x + y*57 + z*141) }

func cubic(v0, v1, v2, v3, x float32) float32 {
	p := (v3 - v2) - (v0 - v1)
	q := (v0 - v1) - p
	r := v2 - v0
	return p*x*x*x + q*x*x + r*x + v1
}

func interpolatedNoise(x, y float32) float32 {
	ix, iy := int32(x), int32(y)
	fx, fy := x-float32(ix), y-float32(iy)

	var rows [4]float32
	for j := int32(0); j < 4; j++ {
		yy := iy + j - 1
		rows[j] = cubic(noise2(ix-1, yy), noise2(ix, yy), noise2(ix+1, yy), noise2(ix+2, yy), fx)
	}
	return cubic(rows[0], rows[1], rows[2], rows[3], fy)
}

// octave3 bicubically interpolates four z slices of lattice noise.
func octave3(x, y, z float32, width int, seed int32, period float32) float32 {
	freq := 1 / period
	num := int32(float32(width) * freq)
	sx, sy, sz := int32(x*freq), int32(y*freq), int32(z*freq)
	zx, zy, zz := x*freq-float32(sx), y*freq-float32(sy), z*freq-float32(sz)

	slice := func(box int32) float32 {
		n := box + seed
		row := func(o int32) float32 {
			return cubic(noise1(n+o-1), noise1(n+o), noise1(n+o+1), noise1(n+o+2), zx)
		}
		return cubic(row(-num), row(0), row(num), row(2*num), zy)
	}
	a := slice(sx + sy + sz*(num-1))
	b := slice(sx + sy + sz*num)
	c := slice(sx + sy + sz*(num+1))
	d := slice(sx + sy + sz*(num+2))
	return cubic(a, b, c, d, zz)
}

func noiseOctaves3(x, y, z, width, octaves int, seed int32, persistence, period float32) float32 {
	p := persistence
	var v float32
	for i := 0; i < octaves; i++ {
		v += octave3(float32(x), float32(y), float32(z), width, seed, period) * p
		period *= 0.5
		p *= persistence
	}
	return v
}

// Noise2D returns size*size RGBA texels of interpolated value noise sampled
// at (x*scale, y*scale). Alpha is always 1.
func Noise2D(size int, scale float32) []float32 {
	out := make([]float32, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := interpolatedNoise(float32(x)*scale, float32(y)*scale)
			i := (y*size + x) * 4
			out[i], out[i+1], out[i+2], out[i+3] = v, v, v, 1
		}
	}
	return out
}

// Noise3D returns size^3 RGBA texels of three-octave volumetric noise. Each
// color channel is drawn with its own seed from rng.
func Noise3D(size int, period float32, rng *rand.Rand) []float32 {
	out := make([]float32, size*size*size*4)
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				i := ((z*size+y)*size + x) * 4
				for c := 0; c < 3; c++ {
					out[i+c] = noiseOctaves3(x, y, z, size, 3, rng.Int31(), 0.2, period)
				}
				out[i+3] = 1
			}
		}
	}
	return out
}
