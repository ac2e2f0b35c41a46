// Package fingerprint computes perceptual similarity signals for section
// and asset crops: a difference hash, a dominant color, and an edge-density
// score. These feed later QA/dedup comparison; classification never reads
// them.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/bits"

	"github.com/shopmorph/shopmorph/models"
	"golang.org/x/image/draw"
)

const (
	// dHash grid: 9 columns so each of the 8 rows yields 8
	// horizontal-neighbor comparison bits → 64 bits total.
	hashW = 9
	hashH = 8

	// colorGrid is the downsample size for dominant color and edge
	// density.
	colorGrid = 16
)

// FromPNG decodes a PNG crop and computes its fingerprint.
func FromPNG(data []byte) (*models.Fingerprint, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode crop: %w", err)
	}
	return Compute(img), nil
}

// Compute derives all three signals from an image. Deterministic: the same
// pixels always produce the same fingerprint.
func Compute(img image.Image) *models.Fingerprint {
	return &models.Fingerprint{
		DHash:         dhash(img),
		DominantColor: dominantColor(img),
		EdgeDensity:   edgeDensity(img),
	}
}

// Distance returns the Hamming distance between two dHash hex strings.
func Distance(a, b string) (int, error) {
	x, err := parseHash(a)
	if err != nil {
		return 0, err
	}
	y, err := parseHash(b)
	if err != nil {
		return 0, err
	}
	return bits.OnesCount64(x ^ y), nil
}

// Similar reports whether two hashes are within the given Hamming distance.
// Malformed hashes are never similar.
func Similar(a, b string, threshold int) bool {
	d, err := Distance(a, b)
	if err != nil {
		return false
	}
	return d <= threshold
}

// dhash downsamples to a hashW×hashH grayscale grid and emits one bit per
// horizontal neighbor pair (left brighter than right), rendered as a
// fixed-length 16-char hex string.
func dhash(img image.Image) string {
	gray := resizeGray(img, hashW, hashH)

	var h uint64
	bit := 0
	for y := 0; y < hashH; y++ {
		for x := 0; x < hashW-1; x++ {
			if gray[y][x] > gray[y][x+1] {
				h |= 1 << uint(63-bit)
			}
			bit++
		}
	}
	return fmt.Sprintf("%016x", h)
}

// dominantColor is the mean RGB over a fixed-size downsample, as #rrggbb.
func dominantColor(img image.Image) string {
	small := resize(img, colorGrid, colorGrid)
	var r, g, b uint64
	for y := 0; y < colorGrid; y++ {
		for x := 0; x < colorGrid; x++ {
			pr, pg, pb, _ := small.At(x, y).RGBA()
			r += uint64(pr >> 8)
			g += uint64(pg >> 8)
			b += uint64(pb >> 8)
		}
	}
	n := uint64(colorGrid * colorGrid)
	return fmt.Sprintf("#%02x%02x%02x", r/n, g/n, b/n)
}

// edgeDensity sums horizontal and vertical neighbor deltas over the
// downsampled grayscale grid, normalized by the theoretical maximum, so
// the result is in [0, 1]. A flat color block scores 0.
func edgeDensity(img image.Image) float64 {
	gray := resizeGray(img, colorGrid, colorGrid)

	sum := 0
	count := 0
	for y := 0; y < colorGrid; y++ {
		for x := 0; x < colorGrid; x++ {
			if x+1 < colorGrid {
				sum += absInt(int(gray[y][x]) - int(gray[y][x+1]))
				count++
			}
			if y+1 < colorGrid {
				sum += absInt(int(gray[y][x]) - int(gray[y+1][x]))
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count*255)
}

func resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func resizeGray(img image.Image, w, h int) [][]uint8 {
	small := resize(img, w, h)
	gray := make([][]uint8, h)
	for y := 0; y < h; y++ {
		gray[y] = make([]uint8, w)
		for x := 0; x < w; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			// ITU-R BT.601 luma.
			gray[y][x] = uint8((299*uint32(r>>8) + 587*uint32(g>>8) + 114*uint32(b>>8)) / 1000)
		}
	}
	return gray
}

func parseHash(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("dhash must be 16 hex chars, got %d", len(s))
	}
	var v uint64
	if _, err := fmt.Sscanf(s, "%016x", &v); err != nil {
		return 0, fmt.Errorf("malformed dhash %q: %w", s, err)
	}
	return v, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
