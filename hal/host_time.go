//go:build !tinygo

package hal

import (
	"sync/atomic"

	"github.com/jonboulle/clockwork"
)

type hostTime struct {
	wall  clockwork.Clock
	frame atomic.Uint64
}

func newHostTime() *hostTime {
	return &hostTime{wall: clockwork.NewRealClock()}
}

func (t *hostTime) Clock() clockwork.Clock { return t.wall }
func (t *hostTime) Frame() uint64          { return t.frame.Load() }

func (t *hostTime) step(n uint64) {
	t.frame.Add(n)
}
