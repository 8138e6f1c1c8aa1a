// Package gpu defines the small slice of a GPU API that the preset renderer
// needs, together with an OpenGL 4.1 core implementation.
package gpu

// Target is the texture binding point.
type Target int

const (
	Target2D Target = iota
	Target3D
)

// Wrap is a sampler addressing mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

func (w Wrap) String() string {
	if w == WrapClamp {
		return "clamp"
	}
	return "repeat"
}

// Filter is a sampler filtering mode.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

func (f Filter) String() string {
	if f == FilterNearest {
		return "nearest"
	}
	return "linear"
}

// PixelFormat describes the client-side layout of texture data.
type PixelFormat int

const (
	// PixelRGB8 is an empty (or byte RGB) render target.
	PixelRGB8 PixelFormat = iota
	// PixelRGBA8 is premultiplied byte RGBA image data.
	PixelRGBA8
	// PixelRGBAFloat is float32 RGBA data, used for noise textures.
	PixelRGBAFloat
)

// TextureDesc describes a texture allocation.
type TextureDesc struct {
	Target Target
	Width  int
	Height int
	Depth  int
	Format PixelFormat
}

// Backend is the set of GPU operations issued by the renderer core. Calls are
// made in the order the caller issues them; there is no retained command
// buffer. Implementations must be called from a goroutine that has a current
// context.
type Backend interface {
	// CompileProgram compiles and links a vertex/fragment pair, then validates
	// the linked program. A failure returns a *CompileError.
	CompileProgram(vertexSource, fragmentSource, label string) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)

	// UniformLocation returns -1 when the uniform does not exist or was
	// optimized out by the driver.
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform4f(location int32, x, y, z, w float32)
	// UniformMatrix3x4 uploads the first three columns of a column-major 4x4.
	UniformMatrix3x4(location int32, m *[16]float32)
	UniformMatrix4(location int32, m *[16]float32)

	// CreateTexture allocates a texture. pixels may be nil, []byte or
	// []float32 depending on desc.Format.
	CreateTexture(desc TextureDesc, pixels any) uint32
	DeleteTexture(id uint32)
	CreateSampler(wrap Wrap, filter Filter) uint32
	DeleteSampler(id uint32)

	ActiveTexture(unit uint32)
	BindTexture(target Target, id uint32)
	BindSampler(unit uint32, sampler uint32)

	// CopyFramebufferToTexture copies the lower-left width x height region
	// of the current read framebuffer into a 2D texture.
	CopyFramebufferToTexture(id uint32, width, height int)

	// Finish blocks until all issued commands have completed.
	Finish()
}
