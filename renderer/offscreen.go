package renderer

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gomilkdrop/logging"
)

const numPBOs = 3

// Offscreen is the framebuffer a frame is rendered into. Its color texture
// is what gets presented or read back for recording.
type Offscreen struct {
	fbo       uint32
	textureID uint32
	width     int
	height    int

	pbos     [numPBOs]uint32
	pboIndex int
	primed   int
}

func NewOffscreen(width, height int) (*Offscreen, error) {
	o := &Offscreen{}
	gl.GenFramebuffers(1, &o.fbo)
	gl.GenTextures(1, &o.textureID)
	gl.GenBuffers(numPBOs, &o.pbos[0])
	if err := o.allocate(width, height); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

func (o *Offscreen) allocate(width, height int) error {
	o.width, o.height = width, height
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.BindTexture(gl.TEXTURE_2D, o.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, o.textureID, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("offscreen fbo is not complete: 0x%x", status)
	}

	size := width * height * 4
	for _, pbo := range o.pbos {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, pbo)
		gl.BufferData(gl.PIXEL_PACK_BUFFER, size, nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	o.pboIndex, o.primed = 0, 0
	logging.Logger().Debug("offscreen target allocated", "width", width, "height", height)
	return nil
}

// Resize reallocates the color texture and the readback buffers.
func (o *Offscreen) Resize(width, height int) error {
	if width == o.width && height == o.height {
		return nil
	}
	return o.allocate(width, height)
}

// Bind makes the target the current draw and read framebuffer.
func (o *Offscreen) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
}

func (o *Offscreen) TextureID() uint32 { return o.textureID }
func (o *Offscreen) Size() (int, int)  { return o.width, o.height }

// ReadPixelsAsync queues a readback of the current frame and returns the
// RGBA pixels of the frame queued numPBOs-1 calls ago, bottom row first.
// It returns nil until the ring is full.
func (o *Offscreen) ReadPixelsAsync() ([]byte, error) {
	size := o.width * o.height * 4

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, o.pbos[o.pboIndex])
	gl.ReadPixels(0, 0, int32(o.width), int32(o.height), gl.RGBA, gl.UNSIGNED_BYTE, nil)

	next := (o.pboIndex + 1) % numPBOs
	o.pboIndex = next
	if o.primed < numPBOs-1 {
		o.primed++
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
		return nil, nil
	}
	return o.mapPBO(o.pbos[next], size)
}

// Flush drains the frames still queued in the ring, oldest first.
func (o *Offscreen) Flush() ([][]byte, error) {
	size := o.width * o.height * 4
	var frames [][]byte
	for ; o.primed > 0; o.primed-- {
		idx := (o.pboIndex - o.primed + numPBOs) % numPBOs
		px, err := o.mapPBO(o.pbos[idx], size)
		if err != nil {
			return frames, err
		}
		frames = append(frames, px)
	}
	return frames, nil
}

func (o *Offscreen) mapPBO(pbo uint32, size int) ([]byte, error) {
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, pbo)
	defer gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, size, gl.MAP_READ_BIT)
	if ptr == nil {
		return nil, fmt.Errorf("failed to map pixel buffer")
	}
	pixels := make([]byte, size)
	copy(pixels, (*[1 << 30]byte)(ptr)[:size:size])
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	return pixels, nil
}

func (o *Offscreen) Destroy() {
	gl.DeleteFramebuffers(1, &o.fbo)
	gl.DeleteTextures(1, &o.textureID)
	gl.DeleteBuffers(numPBOs, &o.pbos[0])
}
