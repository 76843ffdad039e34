//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var logs bytes.Buffer
	var steps int
	var frames []uint64

	err := RunHeadless(context.Background(), func(h HAL) (func() error, error) {
		h.Logger().WriteLineString("ready")
		return func() error {
			steps++
			frames = append(frames, h.Time().Frame())
			return nil
		}, nil
	}, HeadlessConfig{Enabled: true, Hz: 1000, Ticks: 3}, HostOptions{LogOutput: &logs})

	require.NoError(t, err)
	assert.Equal(t, 3, steps)
	assert.Equal(t, []uint64{1, 2, 3}, frames)
	assert.Equal(t, "ready\n", logs.String())
}

func TestRunHeadlessPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	err := RunHeadless(context.Background(), func(HAL) (func() error, error) {
		return nil, boom
	}, HeadlessConfig{Hz: 1000}, HostOptions{LogOutput: &bytes.Buffer{}})
	assert.ErrorIs(t, err, boom)

	err = RunHeadless(context.Background(), func(HAL) (func() error, error) {
		return func() error { return boom }, nil
	}, HeadlessConfig{Hz: 1000}, HostOptions{LogOutput: &bytes.Buffer{}})
	assert.ErrorIs(t, err, boom)
}

func TestRunHeadlessHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := RunHeadless(ctx, func(HAL) (func() error, error) {
		return func() error { return nil }, nil
	}, HeadlessConfig{Hz: 100}, HostOptions{LogOutput: &bytes.Buffer{}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFramebufferPresentPublishes(t *testing.T) {
	fb := newHostFramebuffer(2, 1)
	fb.ClearRGB(0xFF, 0xFF, 0xFF)

	snap := make([]byte, len(fb.buf))
	fb.snapshotRGB565(snap)
	assert.Equal(t, []byte{0, 0, 0, 0}, snap, "nothing presented yet")

	require.NoError(t, fb.Present())
	fb.snapshotRGB565(snap)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, snap)
}

func TestExpandRGB565(t *testing.T) {
	px := RGB565(0xFF, 0, 0)
	src := []byte{byte(px), byte(px >> 8), 0, 0}
	dst := make([]byte, 8)
	expandRGB565(dst, src)
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0, 0, 0xFF}, dst)
}
