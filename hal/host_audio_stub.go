//go:build !tinygo && !cgo

package hal

import "fmt"

// hostAudio is a stub when CGO/window backends are unavailable.
type hostAudio struct{}

func newHostAudio() hostAudio { return hostAudio{} }

func (hostAudio) OpenTrack(path string) (Track, error) {
	return nil, fmt.Errorf("open track %s: %w", path, ErrNotImplemented)
}
