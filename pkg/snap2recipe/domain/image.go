package domain

import (
	"image"
	"image/color"
	"net/url"
)

// ImageReference an opaque fetchable reference to the bytes of a submitted photo: a URL or, for local
// transports, a file path.
type ImageReference struct {
	Location string
}

func NewImageReference(location string) ImageReference {
	return ImageReference{Location: location}
}

// IsURL says whether the reference should be fetched over the network.
func (r ImageReference) IsURL() bool {
	parsed, err := url.Parse(r.Location)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func (r ImageReference) String() string {
	return r.Location
}

// Image the canonical in-memory form of a submitted photo: 8-bit RGB, 3 bytes per pixel, row-major.
// Created once per request by the ImageAcquirer and only read afterwards, so it can be shared between stages.
// Implements image.Image, so it can be passed to any code which works with the standard image types.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
	// Format the name of the format the image was decoded from ("jpeg", "png", ...).
	Format string
	// Encoded the original bytes, for describers which need the file as is.
	Encoded []byte
}

// NewImage converts a decoded image to the canonical RGB form. The alpha channel, if any, is dropped.
func NewImage(decoded image.Image, format string, encoded []byte) *Image {
	bounds := decoded.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, width*height*3)
	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(decoded.At(x, y)).(color.NRGBA)
			pix[offset] = c.R
			pix[offset+1] = c.G
			pix[offset+2] = c.B
			offset += 3
		}
	}
	return &Image{
		Width:   width,
		Height:  height,
		Pix:     pix,
		Format:  format,
		Encoded: encoded,
	}
}

func (i *Image) ColorModel() color.Model {
	return color.RGBAModel
}

func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width, i.Height)
}

func (i *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= i.Width || y >= i.Height {
		return color.RGBA{}
	}
	r, g, b := i.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// RGBAt returns the channels of the pixel at (x, y) without allocating. The coordinates must be in bounds.
func (i *Image) RGBAt(x, y int) (r, g, b uint8) {
	offset := (y*i.Width + x) * 3
	return i.Pix[offset], i.Pix[offset+1], i.Pix[offset+2]
}
