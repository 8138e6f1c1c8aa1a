package gpu

import (
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GL implements Backend on an OpenGL 4.1 core context. gl.Init must have
// been called on a thread with a current context before use.
type GL struct{}

// NewGL returns the OpenGL backend.
func NewGL() *GL { return &GL{} }

func (GL) CompileProgram(vertexSource, fragmentSource, label string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER, "vertex", label)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER, "fragment", label)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programLog(program)
		gl.DeleteProgram(program)
		return 0, &CompileError{Stage: StageLink, Label: label, Log: log}
	}

	gl.ValidateProgram(program)
	gl.GetProgramiv(program, gl.VALIDATE_STATUS, &status)
	if status == gl.FALSE {
		log := programLog(program)
		gl.DeleteProgram(program)
		return 0, &CompileError{Stage: StageValidate, Label: label, Log: log}
	}

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	return program, nil
}

func compileShader(source string, shaderType uint32, kind, label string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, &CompileError{Stage: StageCompile, Shader: kind, Label: label, Log: strings.TrimRight(logText, "\x00")}
	}
	return shader, nil
}

func programLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (GL) DeleteProgram(id uint32) { gl.DeleteProgram(id) }
func (GL) UseProgram(id uint32)    { gl.UseProgram(id) }

func (GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (GL) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (GL) Uniform4f(location int32, x, y, z, w float32) { gl.Uniform4f(location, x, y, z, w) }

func (GL) UniformMatrix3x4(location int32, m *[16]float32) {
	gl.UniformMatrix3x4fv(location, 1, false, &m[0])
}

func (GL) UniformMatrix4(location int32, m *[16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func glTarget(t Target) uint32 {
	if t == Target3D {
		return gl.TEXTURE_3D
	}
	return gl.TEXTURE_2D
}

func (GL) CreateTexture(desc TextureDesc, pixels any) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	target := glTarget(desc.Target)
	gl.BindTexture(target, id)

	var data unsafe.Pointer
	internal, format, dataType := int32(gl.RGB8), uint32(gl.RGB), uint32(gl.UNSIGNED_BYTE)
	switch p := pixels.(type) {
	case []byte:
		if len(p) > 0 {
			data = gl.Ptr(p)
		}
	case []float32:
		if len(p) > 0 {
			data = gl.Ptr(p)
		}
	}
	switch desc.Format {
	case PixelRGBA8:
		internal, format = gl.RGBA8, gl.RGBA
	case PixelRGBAFloat:
		internal, format, dataType = gl.RGBA32F, gl.RGBA, gl.FLOAT
	}

	if desc.Target == Target3D {
		gl.TexImage3D(target, 0, internal, int32(desc.Width), int32(desc.Height), int32(desc.Depth), 0, format, dataType, data)
	} else {
		gl.TexImage2D(target, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, dataType, data)
	}
	gl.BindTexture(target, 0)
	return id
}

func (GL) DeleteTexture(id uint32) { gl.DeleteTextures(1, &id) }

func (GL) CreateSampler(wrap Wrap, filter Filter) uint32 {
	var id uint32
	gl.GenSamplers(1, &id)
	mode := int32(gl.REPEAT)
	if wrap == WrapClamp {
		mode = gl.CLAMP_TO_EDGE
	}
	f := int32(gl.LINEAR)
	if filter == FilterNearest {
		f = gl.NEAREST
	}
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_S, mode)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_T, mode)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_R, mode)
	gl.SamplerParameteri(id, gl.TEXTURE_MIN_FILTER, f)
	gl.SamplerParameteri(id, gl.TEXTURE_MAG_FILTER, f)
	return id
}

func (GL) DeleteSampler(id uint32) { gl.DeleteSamplers(1, &id) }

func (GL) ActiveTexture(unit uint32) { gl.ActiveTexture(gl.TEXTURE0 + unit) }

func (GL) BindTexture(target Target, id uint32) { gl.BindTexture(glTarget(target), id) }

func (GL) BindSampler(unit uint32, sampler uint32) { gl.BindSampler(unit, sampler) }

func (GL) CopyFramebufferToTexture(id uint32, width, height int) {
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.CopyTexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, 0, 0, int32(width), int32(height))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (GL) Finish() { gl.Finish() }
