package ocr

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
)

// minEdge is the smallest side worth recognising without upscaling.
const minEdge = 1000

// Enhance upscales small images then applies grayscale, contrast and
// sharpening. The result is PNG encoded.
func Enhance(png []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, eris.Wrap(err, "decode page image")
	}

	bounds := img.Bounds()
	if bounds.Dx() < minEdge || bounds.Dy() < minEdge {
		img = imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	contrast := imaging.AdjustContrast(gray, 10)
	sharp := imaging.Sharpen(contrast, 1.1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, sharp, imaging.PNG); err != nil {
		return nil, eris.Wrap(err, "encode page image")
	}
	return buf.Bytes(), nil
}
