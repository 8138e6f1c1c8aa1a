package texture

import (
	"strings"

	"github.com/richinsley/gomilkdrop/gpu"
)

// Extensions are stripped from texture names before lookup.
var Extensions = []string{".jpg", ".dds", ".png", ".tga", ".bmp", ".dib"}

// ParseQualifiedName splits a sampler name of the form XY_name, where X is
// F (linear) or P (nearest) and Y is C (clamp) or W (repeat). ok is false
// when name carries no valid qualifier, in which case the modes are
// returned unchanged and unqualified is name itself.
func ParseQualifiedName(name string, wrap gpu.Wrap, filter gpu.Filter) (unqualified string, w gpu.Wrap, f gpu.Filter, ok bool) {
	if len(name) <= 3 || name[2] != '_' {
		return name, wrap, filter, false
	}
	switch name[0] {
	case 'f', 'F':
		f = gpu.FilterLinear
	case 'p', 'P':
		f = gpu.FilterNearest
	default:
		return name, wrap, filter, false
	}
	switch name[1] {
	case 'c', 'C':
		w = gpu.WrapClamp
	case 'w', 'W':
		w = gpu.WrapRepeat
	default:
		return name, wrap, filter, false
	}
	return name[3:], w, f, true
}

// SanitizeName lower-cases name and removes every known image extension.
func SanitizeName(name string) string {
	name = strings.ToLower(name)
	for _, ext := range Extensions {
		if i := strings.Index(name, ext); i >= 0 {
			name = name[:i] + name[i+len(ext):]
		}
	}
	return name
}

// isRandomName reports whether name selects a random user texture, as in
// rand00 or rand04_smalltiled.
func isRandomName(name string) bool {
	name = strings.ToLower(name)
	if len(name) < 6 || !strings.HasPrefix(name, "rand") {
		return false
	}
	return isDigit(name[4]) && isDigit(name[5]) && (len(name) == 6 || name[6] == '_')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func roundUp(v, multiple int) int {
	return ((v + multiple - 1) / multiple) * multiple
}
