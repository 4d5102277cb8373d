package analyzer

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF header decoding
	_ "image/jpeg" // register JPEG header decoding
	_ "image/png"  // register PNG header decoding

	_ "golang.org/x/image/bmp"  // register BMP header decoding
	_ "golang.org/x/image/tiff" // register TIFF header decoding
)

// DecodeImageHeader recovers the pixel dimensions of encoded image bytes by
// decoding just their header; it never decodes pixel data. codegen calls
// it on the bytes of a `#texture` form's `source` value to fill
// create_texture's width/height when no explicit size is given. The
// texture plugin bit does not depend on it: the analyzer sets that bit
// whenever a `source` field is present.
//
// This is independent of the PNG container codec that carries the
// compiled PNGB payload (out of scope, §1): it decodes a *different*
// PNG/BMP/JPEG/GIF/TIFF file the DSL author references as a texture
// source image.
func DecodeImageHeader(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
