package gateway

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// supportedImageMIME lists the media types accepted for image queries.
var supportedImageMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

var dataURIPrefix = regexp.MustCompile(`^data:(image/(?:png|jpeg|jpg|webp));base64,`)

// ValidateImageMIME reports whether mime is accepted for image queries.
// Returns [ErrInvalidImageFormat] otherwise.
func ValidateImageMIME(mime string) error {
	if !supportedImageMIME[strings.ToLower(mime)] {
		return fmt.Errorf("%w: %q", ErrInvalidImageFormat, mime)
	}
	return nil
}

// DataURI encodes img as "data:<mime>;base64,<payload>".
func DataURI(img Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURI decodes a base64 image data URI. Only the media types accepted
// by [ValidateImageMIME] are recognised.
func ParseDataURI(uri string) (Image, error) {
	m := dataURIPrefix.FindStringSubmatch(uri)
	if m == nil {
		return Image{}, ErrInvalidImageFormat
	}
	data, err := base64.StdEncoding.DecodeString(uri[len(m[0]):])
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	return Image{Data: data, MIMEType: m[1]}, nil
}
