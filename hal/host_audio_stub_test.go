//go:build !tinygo && !cgo

package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenTrackWithoutCgo(t *testing.T) {
	_, err := newHostAudio().OpenTrack("song.wav")
	assert.ErrorIs(t, err, ErrNotImplemented)
}
