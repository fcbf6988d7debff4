package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
)

var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file size exceeds limit")
	ErrNotAnImage   = errors.New("uploaded file is not an image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	EncodeBase64(data []byte) string
	ResizeImage(imageData []byte, maxWidth, maxHeight int, quality int) (ResizedImage, error)
}

type ResizedImage struct {
	Data   []byte
	Width  int
	Height int
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
}

func (u *utils) EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ResizeImage scales the image down to fit maxWidth x maxHeight, keeping the
// aspect ratio, and re-encodes it as JPEG. Smaller images are only re-encoded.
func (u *utils) ResizeImage(imageData []byte, maxWidth, maxHeight int, quality int) (ResizedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return ResizedImage{}, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return ResizedImage{}, err
	}

	return ResizedImage{
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
	}, nil
}

func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/ratio <= float64(maxHeight) {
		return maxWidth, max(1, int(float64(maxWidth)/ratio))
	}
	return max(1, int(float64(maxHeight)*ratio)), maxHeight
}
