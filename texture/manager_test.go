package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/gpu/gputest"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 128})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestManagerBlurChain(t *testing.T) {
	m := NewManager(gputest.New(), 1024, 768)
	blur := m.BlurTextures()
	if len(blur) != NumBlurTextures {
		t.Fatalf("len(blur) = %d", len(blur))
	}
	want := []struct {
		name string
		w, h int
	}{
		{"blur1_internal", 512, 384},
		{"blur1", 256, 192},
		{"blur2_internal", 128, 96},
		{"blur2", 128, 96},
		{"blur3_internal", 64, 48},
		{"blur3", 64, 48},
	}
	for i, tex := range blur {
		if tex.Name != want[i].name || tex.Width != want[i].w || tex.Height != want[i].h {
			t.Errorf("blur[%d] = %s %dx%d, want %s %dx%d", i, tex.Name, tex.Width, tex.Height, want[i].name, want[i].w, want[i].h)
		}
	}
}

func TestManagerBlurRoundsToSixteen(t *testing.T) {
	m := NewManager(gputest.New(), 100, 40)
	blur := m.BlurTextures()
	// 100/2=50 -> 64, 40/2=20 -> 32; later levels clamp at 16.
	if blur[0].Width != 64 || blur[0].Height != 32 {
		t.Fatalf("blur1_internal = %dx%d", blur[0].Width, blur[0].Height)
	}
	if blur[5].Width != 16 || blur[5].Height != 16 {
		t.Fatalf("blur3 = %dx%d", blur[5].Width, blur[5].Height)
	}
}

func TestManagerBaselineTextures(t *testing.T) {
	m := NewManager(gputest.New(), 64, 64)
	for name, is3D := range map[string]bool{
		"main": false, "noise_lq_lite": false, "noise_lq": false, "noise_mq": false,
		"noise_hq": false, "noisevol_lq": true, "noisevol_hq": true,
	} {
		b, ok := m.Resolve(name, gpu.WrapRepeat, gpu.FilterLinear)
		if !ok {
			t.Errorf("Resolve(%q) failed", name)
			continue
		}
		if b.Texture.Is3D() != is3D {
			t.Errorf("%s Is3D = %v", name, b.Texture.Is3D())
		}
		if b.Sampler.Wrap != gpu.WrapRepeat || b.Sampler.Filter != gpu.FilterLinear {
			t.Errorf("%s sampler = %v/%v", name, b.Sampler.Wrap, b.Sampler.Filter)
		}
	}
	if _, ok := m.Resolve("nope", gpu.WrapRepeat, gpu.FilterLinear); ok {
		t.Error("Resolve of unknown texture succeeded")
	}
}

func TestManagerQualifiedResolveSharesSamplers(t *testing.T) {
	m := NewManager(gputest.New(), 64, 64)
	a, ok := m.Resolve("pc_main", gpu.WrapRepeat, gpu.FilterLinear)
	if !ok {
		t.Fatal("pc_main not resolved")
	}
	if a.Sampler.Wrap != gpu.WrapClamp || a.Sampler.Filter != gpu.FilterNearest {
		t.Fatalf("sampler = %v/%v", a.Sampler.Wrap, a.Sampler.Filter)
	}
	b, _ := m.Resolve("main", gpu.WrapClamp, gpu.FilterNearest)
	if a.Sampler != b.Sampler {
		t.Fatal("same modes produced different samplers")
	}
}

func TestManagerLoadFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "Clouds.png"), 4, 2)

	m := NewManager(gputest.New(), 64, 64, dir)
	b, ok := m.Load("fw_clouds")
	if !ok {
		t.Fatal("Load(fw_clouds) failed")
	}
	if b.Texture.Width != 4 || b.Texture.Height != 2 || !b.Texture.User {
		t.Fatalf("texture = %+v", b.Texture)
	}

	// Loading by file name on a miss.
	other := t.TempDir()
	m = NewManager(gputest.New(), 64, 64, other)
	writePNG(t, filepath.Join(other, "worms.png"), 2, 2)
	if _, ok := m.Load("worms"); !ok {
		t.Fatal("Load(worms) failed")
	}
	if _, ok := m.Load("missing"); ok {
		t.Fatal("Load(missing) succeeded")
	}
}

func TestManagerRandom(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "tiled_a.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "tiled_b.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "photo.png"), 2, 2)

	m := NewManager(gputest.New(), 64, 64, dir)
	for i := 0; i < 10; i++ {
		b, ok := m.Resolve("rand03_tiled", gpu.WrapRepeat, gpu.FilterLinear)
		if !ok {
			t.Fatal("random texture not resolved")
		}
		if b.Texture.Name != "tiled_a" && b.Texture.Name != "tiled_b" {
			t.Fatalf("picked %q outside the filter", b.Texture.Name)
		}
	}
	if _, ok := NewManager(gputest.New(), 64, 64).Random("rand00"); ok {
		t.Fatal("random selection without user textures succeeded")
	}
}

func TestManagerRelease(t *testing.T) {
	fake := gputest.New()
	m := NewManager(fake, 64, 64)
	created := fake.CountOp("CreateTexture")
	m.Release()
	if got := fake.CountOp("DeleteTexture"); got != created {
		t.Fatalf("deleted %d textures, created %d", got, created)
	}
}

func TestManagerResizeInPlace(t *testing.T) {
	b := gputest.New()
	m := NewManager(b, 64, 64)
	defer m.Release()

	main := m.MainTexture()
	blur := m.BlurTextures()
	bind, _ := m.Resolve("main", gpu.WrapClamp, gpu.FilterNearest)
	oldID := main.ID

	m.Resize(1024, 768)

	if m.MainTexture() != main {
		t.Fatal("resize replaced the main texture")
	}
	if main.Width != 1024 || main.Height != 768 || main.ID == oldID {
		t.Errorf("main after resize = %dx%d id %d", main.Width, main.Height, main.ID)
	}
	if _, ok := b.Texture(oldID); ok {
		t.Error("old main storage not deleted")
	}
	if bind.Texture != main || bind.Sampler != main.Sampler(gpu.WrapClamp, gpu.FilterNearest) {
		t.Error("binding handed out before resize is stale")
	}
	if blur[1] != m.BlurTextures()[1] || blur[1].Width != 256 || blur[1].Height != 192 {
		t.Errorf("blur1 after resize = %dx%d", blur[1].Width, blur[1].Height)
	}
}
