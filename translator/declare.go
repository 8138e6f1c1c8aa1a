package translator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/richinsley/gomilkdrop/texture"
)

var (
	samplerDeclRe = regexp.MustCompile(`\bsampler(2D|3D)?(\s+|\().*`)
	texsizeDeclRe = regexp.MustCompile(`\bfloat4\s+texsize_.*`)
)

// declare removes any sampler or texsize declarations the preset wrote
// itself and prepends one of each per binding. texsize uniforms are also
// emitted for textures the preset only refers to by texsize_ name.
func declare(src string, bindings map[string]texture.Binding) string {
	src = samplerDeclRe.ReplaceAllString(src, "")
	src = texsizeDeclRe.ReplaceAllString(src, "")

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	sizes := make(map[string]bool)
	for _, name := range names {
		sizes[name] = true
		if b := bindings[name]; b.Texture != nil {
			sizes[b.Texture.Name] = true
		}
	}
	sizeNames := make([]string, 0, len(sizes))
	for name := range sizes {
		if validIdent(name) {
			sizeNames = append(sizeNames, name)
		}
	}
	sort.Strings(sizeNames)

	var b strings.Builder
	for _, name := range sizeNames {
		b.WriteString("uniform float4 texsize_" + name + ";\n")
	}
	for _, name := range names {
		kind := "sampler2D"
		if bt := bindings[name]; bt.Texture != nil && bt.Texture.Is3D() {
			kind = "sampler3D"
		}
		b.WriteString("uniform " + kind + " " + samplerPrefix + name + ";\n")
	}
	b.WriteString(src)
	return b.String()
}

func validIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
