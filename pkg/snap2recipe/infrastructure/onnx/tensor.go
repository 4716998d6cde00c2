package onnx

import (
	"image"

	"github.com/nfnt/resize"
)

// Normalization per-channel (R, G, B) statistics the model was trained with.
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// CLIPNormalization the statistics used by both CLIP and BLIP image processors.
var CLIPNormalization = Normalization{
	Mean: [3]float32{0.48145466, 0.4578275, 0.40821073},
	Std:  [3]float32{0.26862954, 0.26130258, 0.27577711},
}

// ResizeMode how an arbitrary image is brought to the square model input.
type ResizeMode int

const (
	// ResizeShortestSideAndCrop cuts the largest square out of the middle, then scales it to the target size. Same
	// result as scaling the shortest side first, but the intermediate image never grows past the source (CLIP).
	ResizeShortestSideAndCrop = ResizeMode(iota)
	// ResizeStretch scales both sides to the target size (BLIP).
	ResizeStretch
)

// ToCHW converts the image to a normalized float32 tensor in channels-first layout: 3 × size × size.
func ToCHW(img image.Image, size int, mode ResizeMode, normalization Normalization) []float32 {
	square := resizeToSquare(img, size, mode)
	bounds := square.Bounds()
	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := square.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pixelIndex := y*size + x
			data[pixelIndex] = (float32(r)/65535.0 - normalization.Mean[0]) / normalization.Std[0]
			data[plane+pixelIndex] = (float32(g)/65535.0 - normalization.Mean[1]) / normalization.Std[1]
			data[2*plane+pixelIndex] = (float32(b)/65535.0 - normalization.Mean[2]) / normalization.Std[2]
		}
	}
	return data
}

func resizeToSquare(img image.Image, size int, mode ResizeMode) image.Image {
	target := uint(size)
	if mode == ResizeStretch {
		return resize.Resize(target, target, img, resize.Bicubic)
	}
	bounds := img.Bounds()
	return resize.Resize(target, target, centerCrop(img, min(bounds.Dx(), bounds.Dy())), resize.Bicubic)
}

type croppedImage struct {
	image.Image
	bounds image.Rectangle
}

func (c croppedImage) Bounds() image.Rectangle {
	return c.bounds
}

func centerCrop(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	left := bounds.Min.X + (bounds.Dx()-size)/2
	top := bounds.Min.Y + (bounds.Dy()-size)/2
	return croppedImage{
		Image:  img,
		bounds: image.Rect(left, top, left+size, top+size),
	}
}
