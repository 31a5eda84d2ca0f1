package compress

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// DecompressError represents a failure to decode compressed data
type DecompressError struct {
	Format string // "deflate" or "gzip"
	Err    error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("decompress error [%s]: %v", e.Format, e.Err)
}

func (e *DecompressError) Unwrap() error {
	return e.Err
}

// DeflateRaw compresses data as a raw DEFLATE stream with no zlib or gzip
// framing, which is the body format ZIP entries require.
func DeflateRaw(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate close failed: %w", err)
	}
	return buf.Bytes(), nil
}

// InflateRaw decompresses a raw DEFLATE stream produced by DeflateRaw or by
// any conforming ZIP writer.
func InflateRaw(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecompressError{Format: "deflate", Err: err}
	}
	return out, nil
}

// GzipText compresses a text payload with gzip framing
func GzipText(text string) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}

// GunzipText decompresses a gzip stream back into text
func GunzipText(data []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", &DecompressError{Format: "gzip", Err: err}
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", &DecompressError{Format: "gzip", Err: err}
	}
	return string(out), nil
}

// EncodePayload compacts a JSON payload for storage in a text-only substrate:
// gzip then base64, so the result is a plain string value.
func EncodePayload(text string) (string, error) {
	compressed, err := GzipText(text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// DecodePayload reverses EncodePayload. A value that is not valid base64 or
// not a valid gzip stream yields a DecompressError.
func DecodePayload(value string) (string, error) {
	compressed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", &DecompressError{Format: "gzip", Err: err}
	}
	return GunzipText(compressed)
}
