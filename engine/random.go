package engine

import (
	"math"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// NumRotations is the size of the transform table. The first
// numPresetRotations entries drift slowly from per-preset seeds; the rest
// are redrawn every frame.
const (
	NumRotations       = 24
	numPresetRotations = 20
)

// presetState holds the random values drawn once per preset. It is reset
// on the compile worker and read on the render thread.
type presetState struct {
	mu  sync.Mutex
	rng *rand.Rand

	randPreset [4]float32
	xlate      [numPresetRotations]mgl32.Vec3
	rotBase    [numPresetRotations]mgl32.Vec3
	rotSpeed   [numPresetRotations]mgl32.Vec3
}

func newPresetState(seed int64) *presetState {
	s := &presetState{rng: rand.New(rand.NewSource(seed))}
	s.reset()
	return s
}

// frand returns one of 7381 evenly spaced values in [0,1].
func (s *presetState) frand() float32 {
	return float32(s.rng.Intn(7381)) / 7380
}

func (s *presetState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.randPreset {
		s.randPreset[i] = s.frand()
	}
	for k := 0; k < numPresetRotations; k++ {
		rotMult := 0.9 * float32(math.Pow(float64(k)/8, 3.2))
		s.xlate[k] = mgl32.Vec3{s.frand()*2 - 1, s.frand()*2 - 1, s.frand()*2 - 1}
		s.rotBase[k] = mgl32.Vec3{s.frand() * 6.28, s.frand() * 6.28, s.frand() * 6.28}
		s.rotSpeed[k] = mgl32.Vec3{(s.frand()*2 - 1) * rotMult, (s.frand()*2 - 1) * rotMult, (s.frand()*2 - 1) * rotMult}
	}
}

// frame draws the per-frame values: rand_frame and the transform table at
// time t.
func (s *presetState) frame(t float32) (randPreset, randFrame [4]float32, rot [NumRotations]mgl32.Mat4) {
	s.mu.Lock()
	defer s.mu.Unlock()

	randPreset = s.randPreset
	for i := range randFrame {
		randFrame[i] = float32(s.rng.Intn(100)) * 0.01
	}
	for i := 0; i < numPresetRotations; i++ {
		angle := s.rotBase[i].Add(s.rotSpeed[i].Mul(t))
		rot[i] = rotation(angle, s.xlate[i])
	}
	for i := numPresetRotations; i < NumRotations; i++ {
		angle := mgl32.Vec3{s.frand() * 6.28, s.frand() * 6.28, s.frand() * 6.28}
		rot[i] = rotation(angle, mgl32.Vec3{s.frand(), s.frand(), s.frand()})
	}
	return randPreset, randFrame, rot
}

// rotation is Ry * Rz * T * Rx.
func rotation(angle, xlate mgl32.Vec3) mgl32.Mat4 {
	mx := mgl32.HomogRotate3DX(angle.X())
	my := mgl32.HomogRotate3DY(angle.Y())
	mz := mgl32.HomogRotate3DZ(angle.Z())
	t := mgl32.Translate3D(xlate.X(), xlate.Y(), xlate.Z())
	return my.Mul4(mz.Mul4(t.Mul4(mx)))
}
