// Package face enrolls and identifies faces from still images.
//
// An image is reduced to a fixed-length embedding: the whole picture is
// treated as one face region, converted to grayscale, scaled to
// EmbeddingSide x EmbeddingSide and normalised to zero mean and unit
// length.  Two embeddings match when their Euclidean distance is within
// Tolerance.
package face

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	EmbeddingSide = 32
	Tolerance     = 0.6
)

var (
	ErrDecode     = errors.New("could not decode image")
	ErrNoContrast = errors.New("image has no usable contrast")
)

// Embedding is a unit-length feature vector.
type Embedding []float64

// Decode sniffs the content type of data and decodes jpeg, png or webp.
// The filename extension is used when sniffing is inconclusive.
func Decode(data []byte, filename string) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrDecode, "empty file")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".jpg", ".jpeg":
			img, err = jpeg.Decode(bytes.NewReader(data))
		case ".png":
			img, err = png.Decode(bytes.NewReader(data))
		case ".webp":
			img, err = webp.Decode(bytes.NewReader(data))
		default:
			return nil, errors.Wrapf(ErrDecode, "unsupported format %s", ct)
		}
	}
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	return img, nil
}

// Embed computes the embedding of img.
func Embed(img image.Image) (Embedding, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrDecode
	}
	dst := image.NewGray(image.Rect(0, 0, EmbeddingSide, EmbeddingSide))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	v := make(Embedding, EmbeddingSide*EmbeddingSide)
	var mean float64
	for y := 0; y < EmbeddingSide; y++ {
		for x := 0; x < EmbeddingSide; x++ {
			g := float64(dst.GrayAt(x, y).Y)
			v[y*EmbeddingSide+x] = g
			mean += g
		}
	}
	mean /= float64(len(v))

	var norm float64
	for i := range v {
		v[i] -= mean
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm < 1e-9 {
		return nil, ErrNoContrast
	}
	for i := range v {
		v[i] /= norm
	}
	return v, nil
}

// EmbedBytes decodes data and embeds it.
func EmbedBytes(data []byte, filename string) (Embedding, error) {
	img, err := Decode(data, filename)
	if err != nil {
		return nil, err
	}
	return Embed(img)
}

// Distance is the Euclidean distance between a and b.  Vectors of
// different length are infinitely far apart.
func Distance(a, b Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarity converts a distance into a percentage; identical embeddings
// score 100.
func Similarity(distance float64) float64 {
	return (1 - distance) * 100
}

