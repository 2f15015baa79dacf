package security

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxPhotoBytes caps decoded photo size when no limit is configured.
const DefaultMaxPhotoBytes = 8 * 1024 * 1024

var dataURIPattern = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)

// allowedPhotoTypes is the strict-mode allowlist, keyed by MIME type.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// PhotoError is a client-facing problem with the uploaded photo.
type PhotoError struct {
	Message string
	Cause   error
}

func (e *PhotoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PhotoError) Unwrap() error {
	return e.Cause
}

// Photo messages returned to clients.
const (
	MsgPhotoRequired    = "Camera photo is required"
	MsgInvalidImageData = "Invalid image data format"
)

// PhotoOptions controls DecodePhoto.
type PhotoOptions struct {
	// MaxBytes caps the decoded size; zero means DefaultMaxPhotoBytes.
	MaxBytes int64
	// StrictTypes rejects photos that are not jpeg, png or webp, checking
	// both the declared subtype and the sniffed content.
	StrictTypes bool
}

// Photo is a decoded data-URI upload.
type Photo struct {
	// Subtype is the subtype declared in the data URI ("png" for data:image/png).
	Subtype string
	// Detected is the sniffed MIME type of the decoded bytes.
	Detected string
	// Base64 is the payload exactly as uploaded.
	Base64 string
	// Data is the decoded payload.
	Data []byte
}

// MIMEType returns the sniffed type when it is an image, otherwise the
// declared one.
func (p *Photo) MIMEType() string {
	if strings.HasPrefix(p.Detected, "image/") {
		return p.Detected
	}
	return "image/" + p.Subtype
}

// Format returns the image format name the vision model expects ("png", "jpeg").
func (p *Photo) Format() string {
	return strings.TrimPrefix(p.MIMEType(), "image/")
}

// DecodePhoto parses a data:image/<subtype>;base64,<data> URI. The payload
// must be valid base64 and within the size limit. Sniffing with mimetype
// only annotates the photo unless opts.StrictTypes is set.
func DecodePhoto(dataURL string, opts PhotoOptions) (*Photo, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, &PhotoError{Message: MsgPhotoRequired}
	}

	m := dataURIPattern.FindStringSubmatch(dataURL)
	if m == nil || m[2] == "" {
		return nil, &PhotoError{Message: MsgInvalidImageData}
	}
	subtype, payload := strings.ToLower(m[1]), m[2]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &PhotoError{Message: MsgInvalidImageData, Cause: err}
	}

	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxPhotoBytes
	}
	if int64(len(data)) > limit {
		return nil, &PhotoError{Message: "Image exceeds maximum size of " + formatSize(limit)}
	}

	photo := &Photo{
		Subtype:  subtype,
		Detected: mimetype.Detect(data).String(),
		Base64:   payload,
		Data:     data,
	}

	if opts.StrictTypes {
		if !allowedPhotoTypes["image/"+subtype] || !allowedPhotoTypes[photo.Detected] {
			return nil, &PhotoError{Message: fmt.Sprintf("Unsupported image type: %s", photo.Detected)}
		}
	}

	return photo, nil
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
