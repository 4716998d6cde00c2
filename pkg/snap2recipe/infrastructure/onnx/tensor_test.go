package onnx

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"testing"
)

func TestToCHWUniformImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 255, A: 255})
		}
	}
	for _, mode := range []ResizeMode{ResizeShortestSideAndCrop, ResizeStretch} {
		data := ToCHW(img, 4, mode, CLIPNormalization)
		if expected, actual := 3*4*4, len(data); expected != actual {
			t.Fatalf("Expected %d values, got %d", expected, actual)
		}
		expected := [3]float32{
			(1 - CLIPNormalization.Mean[0]) / CLIPNormalization.Std[0],
			(0 - CLIPNormalization.Mean[1]) / CLIPNormalization.Std[1],
			(1 - CLIPNormalization.Mean[2]) / CLIPNormalization.Std[2],
		}
		for i, value := range data {
			channel := i / 16
			if math.Abs(float64(value-expected[channel])) > 1e-2 {
				t.Fatalf("Mode %d, index %d: expected %f, got %f", mode, i, expected[channel], value)
			}
		}
	}
}

func TestToCHWCropsTheMiddle(t *testing.T) {
	// Left half red, right half blue. After cropping 8x8 from the middle and scaling it to 4x4,
	// the first column comes from the red half and the last one from the blue half.
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 8 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	identity := Normalization{Std: [3]float32{1, 1, 1}}
	data := ToCHW(img, 4, ResizeShortestSideAndCrop, identity)
	red := func(x, y int) float32 { return data[y*4+x] }
	blue := func(x, y int) float32 { return data[2*16+y*4+x] }
	for y := 0; y < 4; y++ {
		if red(0, y) <= blue(0, y) {
			t.Errorf("Row %d: expected the first column to be red, got r=%f b=%f", y, red(0, y), blue(0, y))
		}
		if blue(3, y) <= red(3, y) {
			t.Errorf("Row %d: expected the last column to be blue, got r=%f b=%f", y, red(3, y), blue(3, y))
		}
	}
}

func TestToCHWExtremeAspectRatio(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2000, 1))
	for x := 0; x < 2000; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	data := ToCHW(img, 224, ResizeShortestSideAndCrop, CLIPNormalization)
	runtime.ReadMemStats(&after)

	if expected, actual := 3*224*224, len(data); expected != actual {
		t.Fatalf("Expected %d values, got %d", expected, actual)
	}
	// The output tensor and a 224x224 intermediate take well under a megabyte each.
	const limit = 16 << 20
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > limit {
		t.Errorf("Expected at most %d bytes allocated, got %d", limit, allocated)
	}
	expected := (1 - CLIPNormalization.Mean[0]) / CLIPNormalization.Std[0]
	if math.Abs(float64(data[0]-expected)) > 1e-2 {
		t.Errorf("Expected %f, got %f", expected, data[0])
	}
}
