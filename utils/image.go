package utils

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const maxAvatarSide = 400

// ResizeAvatar shrinks the image at path to fit within 400x400, preserving
// aspect ratio, and rewrites it in place. Images already within bounds are
// left untouched.
func ResizeAvatar(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	src, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxAvatarSide && h <= maxAvatarSide {
		return nil
	}

	scale := float64(maxAvatarSide) / float64(w)
	if h > w {
		scale = float64(maxAvatarSide) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case "png":
		return png.Encode(out, dst)
	default:
		return jpeg.Encode(out, dst, &jpeg.Options{Quality: 85})
	}
}

// AllowedAvatarExt reports whether the upload filename carries an image
// extension this app serves.
func AllowedAvatarExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
