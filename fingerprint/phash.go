package fingerprint

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/bits"
	"sort"

	"github.com/disintegration/imaging"
)

// DCT-based perceptual hash: the image is reduced to dctSize x dctSize
// grayscale, transformed, and the low-frequency hashDim x hashDim block is
// thresholded at its median into a hashDim*hashDim bit vector.
const (
	dctSize = 32
	hashDim = 8

	// HashBits is the fixed length of every fingerprint produced here.
	HashBits = hashDim * hashDim
)

// cosTable[k][n] = cos(pi/N * (n + 0.5) * k) for the 1D DCT-II
var cosTable [dctSize][dctSize]float64

func init() {
	for k := 0; k < dctSize; k++ {
		for n := 0; n < dctSize; n++ {
			cosTable[k][n] = math.Cos(math.Pi / dctSize * (float64(n) + 0.5) * float64(k))
		}
	}
}

// Compute reads an image and returns its encoded perceptual fingerprint.
// An undecodable payload yields the empty string with a nil error: hashing is
// best-effort and must not block an upload.
func Compute(r io.Reader) (string, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return "", nil
	}

	small := imaging.Resize(imaging.Grayscale(img), dctSize, dctSize, imaging.Lanczos)

	var pixels [dctSize][dctSize]float64
	for y := 0; y < dctSize; y++ {
		for x := 0; x < dctSize; x++ {
			r16, _, _, _ := small.At(x, y).RGBA()
			pixels[y][x] = float64(r16 >> 8)
		}
	}

	coeffs := dct2d(&pixels)

	// median of the low-frequency block as the bit threshold
	block := make([]float64, 0, HashBits)
	for v := 0; v < hashDim; v++ {
		for u := 0; u < hashDim; u++ {
			block = append(block, coeffs[v][u])
		}
	}
	sorted := append([]float64(nil), block...)
	sort.Float64s(sorted)
	median := (sorted[HashBits/2-1] + sorted[HashBits/2]) / 2

	var raw [HashBits / 8]byte
	for i, c := range block {
		if c > median {
			raw[i/8] |= 1 << uint(7-i%8)
		}
	}

	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// dct2d applies the 1D DCT-II to every row, then to every column.
func dct2d(pixels *[dctSize][dctSize]float64) *[dctSize][dctSize]float64 {
	var rows, out [dctSize][dctSize]float64
	for y := 0; y < dctSize; y++ {
		dct1d(&pixels[y], &rows[y])
	}
	var col, res [dctSize]float64
	for x := 0; x < dctSize; x++ {
		for y := 0; y < dctSize; y++ {
			col[y] = rows[y][x]
		}
		dct1d(&col, &res)
		for y := 0; y < dctSize; y++ {
			out[y][x] = res[y]
		}
	}
	return &out
}

func dct1d(in, out *[dctSize]float64) {
	for k := 0; k < dctSize; k++ {
		var sum float64
		for n := 0; n < dctSize; n++ {
			sum += in[n] * cosTable[k][n]
		}
		out[k] = sum
	}
}

// Distance returns the normalized Hamming distance between two encoded
// fingerprints: differing bits divided by total bits, 0 for identical and 1
// for fully opposite vectors.
func Distance(a, b string) (float64, error) {
	rawA, err := base64.StdEncoding.DecodeString(a)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint encoding: %w", err)
	}
	rawB, err := base64.StdEncoding.DecodeString(b)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint encoding: %w", err)
	}
	if len(rawA) != len(rawB) || len(rawA) == 0 {
		return 0, fmt.Errorf("fingerprint length mismatch: %d vs %d bytes", len(rawA), len(rawB))
	}

	diff := 0
	for i := range rawA {
		diff += bits.OnesCount8(rawA[i] ^ rawB[i])
	}
	return float64(diff) / float64(len(rawA)*8), nil
}
