package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/invoicepro/invoicepro/internal/shared"
)

// StampDir is the folder under the media root holding company stamps.
const StampDir = "company_stamps"

// stampSize bounds the stamp in pixels; about 45mm at 96 dpi.
const stampSize = 170

// maxStampBytes caps uploads.
const maxStampBytes = 2 << 20

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// StampDataURI loads the image at path, fits it into the stamp box and
// returns it as a PNG data URI for inline use in HTML.
func StampDataURI(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("documents: open stamp: %w", err)
	}
	return encodeStamp(img)
}

func encodeStamp(img image.Image) (string, error) {
	fitted := imaging.Fit(img, stampSize, stampSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := png.Encode(&buf, fitted); err != nil {
		return "", fmt.Errorf("documents: encode stamp: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// StampStore saves uploaded stamp images on local disk.
type StampStore struct {
	root string
	now  func() time.Time
}

// NewStampStore stores files under root/company_stamps.
func NewStampStore(root string) *StampStore {
	return &StampStore{root: root, now: time.Now}
}

// Path resolves a stored relative path.
func (s *StampStore) Path(rel string) string {
	if rel == "" {
		return ""
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Save decodes the upload to make sure it is an image, normalises it to PNG
// and returns the path relative to the media root.
func (s *StampStore) Save(filename string, r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxStampBytes+1))
	if err != nil {
		return "", fmt.Errorf("documents: read stamp: %w", err)
	}
	if len(raw) > maxStampBytes {
		return "", fieldError("stamp", "image must be at most 2MB")
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fieldError("stamp", "must be a PNG or JPEG image")
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeName.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		base = "stamp"
	}
	name := fmt.Sprintf("%s-%s-%s.png", s.now().Format("20060102"), uuid.NewString(), base)
	rel := StampDir + "/" + name

	dir := filepath.Join(s.root, StampDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("documents: create stamp dir: %w", err)
	}
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("documents: save stamp: %w", err)
	}
	return rel, nil
}

func fieldError(field, msg string) error {
	errs := shared.FieldErrors{}
	errs.Add(field, msg)
	return errs.Err()
}
