package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/roach88/fleetdesk/internal/driver"
)

// DefaultMaxSize bounds a single upload.
const DefaultMaxSize int64 = 5 << 20

// ErrTooLarge is returned when a source exceeds the size limit.
var ErrTooLarge = errors.New("ingest: file too large")

// Read loads src fully and returns it as a blob whose Data is a data URI.
// A limit <= 0 means DefaultMaxSize.
func Read(ctx context.Context, src Source, limit int64) (*driver.DocumentBlob, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", src.Name(), limit, ErrTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := DetectType(data)
	return &driver.DocumentBlob{
		Name: src.Name(),
		Data: EncodeDataURI(mime, data),
		Type: mime,
		Size: int64(len(data)),
	}, nil
}

// DetectType sniffs the media type of data without parameters.
func DetectType(data []byte) string {
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mime)
}
