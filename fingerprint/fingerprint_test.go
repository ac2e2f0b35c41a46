package fingerprint

import (
	"image"
	"image/color"
	"testing"
)

// flat returns a uniformly colored test image.
func flat(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// halves returns an image split vertically into two colors.
func halves(w, h int, left, right color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, left)
			} else {
				img.SetRGBA(x, y, right)
			}
		}
	}
	return img
}

func TestComputeDeterministic(t *testing.T) {
	img := halves(200, 100, color.RGBA{10, 20, 30, 255}, color.RGBA{240, 230, 220, 255})
	a := Compute(img)
	b := Compute(img)

	if a.DHash != b.DHash {
		t.Errorf("dhash differs across runs: %s vs %s", a.DHash, b.DHash)
	}
	if a.DominantColor != b.DominantColor {
		t.Errorf("dominant color differs: %s vs %s", a.DominantColor, b.DominantColor)
	}
	if a.EdgeDensity != b.EdgeDensity {
		t.Errorf("edge density differs: %f vs %f", a.EdgeDensity, b.EdgeDensity)
	}
}

func TestDHashFormat(t *testing.T) {
	fp := Compute(flat(64, 64, color.RGBA{128, 128, 128, 255}))
	if len(fp.DHash) != 16 {
		t.Errorf("dhash length = %d, want 16 hex chars", len(fp.DHash))
	}
	// A flat image has no left/right gradient anywhere: all bits zero.
	if fp.DHash != "0000000000000000" {
		t.Errorf("flat image dhash = %s, want all zeros", fp.DHash)
	}
}

func TestDominantColorOfFlatImage(t *testing.T) {
	fp := Compute(flat(32, 32, color.RGBA{255, 0, 0, 255}))
	if fp.DominantColor != "#ff0000" {
		t.Errorf("dominant color = %s, want #ff0000", fp.DominantColor)
	}
}

func TestEdgeDensityBounds(t *testing.T) {
	flatFP := Compute(flat(64, 64, color.RGBA{200, 200, 200, 255}))
	if flatFP.EdgeDensity != 0 {
		t.Errorf("flat image edge density = %f, want 0", flatFP.EdgeDensity)
	}

	busy := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x+y)%2 == 0 {
				busy.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			} else {
				busy.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	busyFP := Compute(busy)
	if busyFP.EdgeDensity < 0 || busyFP.EdgeDensity > 1 {
		t.Errorf("edge density %f out of [0, 1]", busyFP.EdgeDensity)
	}
	if busyFP.EdgeDensity <= flatFP.EdgeDensity {
		t.Error("checkerboard must score denser than a flat block")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    int
		wantErr bool
	}{
		{name: "identical", a: "0000000000000000", b: "0000000000000000", want: 0},
		{name: "one bit", a: "0000000000000000", b: "0000000000000001", want: 1},
		{name: "all bits", a: "0000000000000000", b: "ffffffffffffffff", want: 64},
		{name: "mixed", a: "00000000000000ff", b: "000000000000ff00", want: 16},
		{name: "short input", a: "abc", b: "0000000000000000", wantErr: true},
		{name: "non-hex", a: "zzzzzzzzzzzzzzzz", b: "0000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Distance: %v", err)
			}
			if got != tt.want {
				t.Errorf("Distance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	if !Similar("00000000000000ff", "00000000000000fe", 2) {
		t.Error("one-bit difference within threshold 2 must be similar")
	}
	if Similar("0000000000000000", "ffffffffffffffff", 10) {
		t.Error("64-bit difference must not be similar at threshold 10")
	}
	if Similar("bad", "0000000000000000", 64) {
		t.Error("malformed hashes are never similar")
	}
}

func TestSimilarImagesHaveCloseHashes(t *testing.T) {
	base := halves(200, 100, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})
	// Same structure at a different size downsamples to the same grid.
	scaled := halves(400, 200, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})

	d, err := Distance(Compute(base).DHash, Compute(scaled).DHash)
	if err != nil {
		t.Fatal(err)
	}
	if d > 6 {
		t.Errorf("structurally identical images at different scales have distance %d", d)
	}
}
