package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize is the decoded size limit of a single media payload (5MB)
const MaxSize = 5 * 1024 * 1024

var (
	ErrEmptyPayload    = errors.New("media payload is empty")
	ErrTooLarge        = fmt.Errorf("media payload exceeds %d bytes", MaxSize)
	ErrUnsupportedType = errors.New("media type is not allowed")
	ErrContentMismatch = errors.New("media content does not match declared type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// File is a decoded media payload ready for upload
type File struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Size returns the payload length in bytes
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// IsAllowed reports whether mimeType is on the allow-list
func IsAllowed(mimeType string) bool {
	_, ok := allowedTypes[normalizeMIME(mimeType)]
	return ok
}

// AllowedTypes lists the accepted MIME types
func AllowedTypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "video/mp4", "video/webm"}
}

// DecodedSize estimates the decoded length of a base64 payload without decoding it
func DecodedSize(encoded string) int {
	_, body, err := splitDataURI(encoded)
	if err != nil {
		body = encoded
	}
	body = strings.TrimRight(strings.TrimSpace(body), "=")
	return base64.RawStdEncoding.DecodedLen(len(body))
}

// Decode turns a base64 string or data URI into a File. The declared MIME type
// wins over the one in the data URI; the sniffed content must belong to the
// same family (image or video) as the declared type.
func Decode(encoded, declaredMIME, filename string) (*File, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, ErrEmptyPayload
	}

	uriMIME, body, err := splitDataURI(encoded)
	if err != nil {
		return nil, err
	}

	mimeType := normalizeMIME(declaredMIME)
	if mimeType == "" {
		mimeType = uriMIME
	}
	if !IsAllowed(mimeType) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}

	if DecodedSize(body) > MaxSize {
		return nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 media: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is(mimeType) && family(detected.String()) != family(mimeType) {
		return nil, fmt.Errorf("%w: declared %s, detected %s", ErrContentMismatch, mimeType, detected.String())
	}

	if strings.TrimSpace(filename) == "" {
		filename = uuid.NewString() + allowedTypes[mimeType]
	}

	return &File{Data: data, MIMEType: mimeType, Filename: filename}, nil
}

// splitDataURI separates "data:<mime>;base64,<body>" into its MIME type and
// body. Plain base64 is returned unchanged with an empty MIME type.
func splitDataURI(s string) (string, string, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", s, nil
	}

	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid data URI format")
	}

	meta := strings.TrimPrefix(parts[0], "data:")
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", fmt.Errorf("data URI is not base64 encoded")
	}

	return normalizeMIME(strings.TrimSuffix(meta, ";base64")), parts[1], nil
}

func normalizeMIME(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

func family(mimeType string) string {
	if i := strings.Index(mimeType, "/"); i > 0 {
		return mimeType[:i]
	}
	return mimeType
}
