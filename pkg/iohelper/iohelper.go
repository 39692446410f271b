// Package iohelper reads HTTP bodies with size limits.
package iohelper

import (
	"errors"
	"fmt"
	"io"
)

// Body size limits.
const (
	// SmallMaxBodySize is for webhook acknowledgements and error pages (8KB).
	SmallMaxBodySize int64 = 8 * 1024

	// UpstreamMaxBodySize bounds one collaborator response (32MB). Scan
	// output for large ranges is the biggest legitimate payload.
	UpstreamMaxBodySize int64 = 32 << 20

	// drainLimit caps how much DrainAndClose discards.
	drainLimit int64 = 64 * 1024
)

// ErrBodyTooLarge is returned by ReadBody when r holds more than the limit.
var ErrBodyTooLarge = errors.New("iohelper: body exceeds size limit")

// ReadBody reads all of r, failing with ErrBodyTooLarge instead of
// truncating when r holds more than maxSize bytes. A nil r reads as empty.
//
// Usage:
//
//	body, err := iohelper.ReadBody(resp.Body, iohelper.UpstreamMaxBodySize)
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > maxSize {
		return data[:maxSize], fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, maxSize)
	}
	return data, nil
}

// DrainAndClose discards up to 64KB of r and closes it if it is an
// io.ReadCloser, so the connection can be reused. It always returns nil
// to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	if rc, ok := r.(io.ReadCloser); ok {
		_ = rc.Close()
	}
	return nil
}
