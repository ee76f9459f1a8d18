// Package content defines the payload of a clipboard history entry.
//
// Content is a closed sum type: the only implementations are Text, Image and
// File. Consumers switch over the concrete type; the unexported marker method
// keeps other packages from adding variants.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Kind is the stable type tag written to persistent storage.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// ImagePreview is the preview and search text of every image.
const ImagePreview = "Image"

// Content is one clipboard payload.
type Content interface {
	// Kind returns the persistent type tag.
	Kind() Kind
	// Bytes returns the raw bytes stored for this payload.
	Bytes() []byte
	// Preview returns the human-readable text used for display and search.
	Preview() string

	sealed()
}

// Text is a plain-text payload.
type Text string

// Image is an encoded image (PNG, TIFF, ...).
type Image []byte

// File is an absolute path to a file on disk.
type File string

func (Text) Kind() Kind        { return KindText }
func (t Text) Bytes() []byte   { return []byte(t) }
func (t Text) Preview() string { return string(t) }
func (Text) sealed()           {}

func (Image) Kind() Kind        { return KindImage }
func (i Image) Bytes() []byte   { return bytes.Clone(i) }
func (Image) Preview() string   { return ImagePreview }
func (Image) sealed()           {}

func (File) Kind() Kind      { return KindFile }
func (f File) Bytes() []byte { return []byte(f) }
func (File) sealed()         {}

// Preview returns the last path component.
func (f File) Preview() string {
	p := filepath.ToSlash(string(f))
	p = strings.TrimRight(p, "/")
	if p == "" {
		return string(f)
	}
	return path.Base(p)
}

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("content: decode failed")

// DecodeError reports bytes that cannot be interpreted under their kind.
type DecodeError struct {
	Kind   Kind
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("content: decode %q: %s", e.Kind, e.Reason)
}

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Encode returns the (kind, bytes) pair persisted for c.
func Encode(c Content) (Kind, []byte) {
	return c.Kind(), c.Bytes()
}

// Decode rebuilds a Content from a persisted (kind, bytes) pair.
func Decode(kind Kind, data []byte) (Content, error) {
	switch kind {
	case KindText:
		if !utf8.Valid(data) {
			return nil, &DecodeError{Kind: kind, Reason: "invalid UTF-8"}
		}
		return Text(data), nil

	case KindImage:
		if len(data) == 0 {
			return nil, &DecodeError{Kind: kind, Reason: "empty image"}
		}
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, &DecodeError{Kind: kind, Reason: err.Error()}
		}
		return Image(bytes.Clone(data)), nil

	case KindFile:
		switch {
		case len(data) == 0:
			return nil, &DecodeError{Kind: kind, Reason: "empty path"}
		case !utf8.Valid(data):
			return nil, &DecodeError{Kind: kind, Reason: "invalid UTF-8"}
		case bytes.IndexByte(data, 0) >= 0:
			return nil, &DecodeError{Kind: kind, Reason: "NUL byte in path"}
		}
		return File(data), nil

	default:
		return nil, &DecodeError{Kind: kind, Reason: "unknown kind"}
	}
}

// Summary returns a short single-line description of c for logs: a text
// preview of up to 120 characters, the image size and dimensions, or the
// file path.
func Summary(c Content) string {
	switch v := c.(type) {
	case Text:
		s := strings.ReplaceAll(string(v), "\n", " ")
		if utf8.RuneCountInString(s) > 120 {
			s = string([]rune(s)[:120]) + "…"
		}
		return s
	case Image:
		cfg, format, err := image.DecodeConfig(bytes.NewReader(v))
		if err != nil {
			return fmt.Sprintf("image (%d bytes)", len(v))
		}
		return fmt.Sprintf("%s image %dx%d (%d bytes)", format, cfg.Width, cfg.Height, len(v))
	case File:
		return string(v)
	default:
		panic(fmt.Sprintf("content: unknown variant %T", c))
	}
}
