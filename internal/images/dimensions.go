package images

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	_ "golang.org/x/image/webp"
)

// dimensions decodes the pixel size of data. Formats without a registered
// decoder (SVG, AVIF, HEIC) report zero.
func dimensions(name string, data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Unable to read image dimensions", "file", name, "err", err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
