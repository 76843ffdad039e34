package timing

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestStopwatchAdvancesWithWallClock(t *testing.T) {
	wall := clockwork.NewFakeClock()
	c := NewStopwatchClock(wall)

	wall.Advance(time.Second)
	assert.Equal(t, 0.0, c.CurrentTime(), "stopped stopwatch must not advance")

	c.Start()
	wall.Advance(250 * time.Millisecond)
	assert.Equal(t, 250.0, c.CurrentTime())

	c.Stop()
	wall.Advance(time.Second)
	assert.Equal(t, 250.0, c.CurrentTime())
}

func TestStopwatchSeekAndRate(t *testing.T) {
	wall := clockwork.NewFakeClock()
	c := NewStopwatchClock(wall)
	c.Start()

	assert.True(t, c.Seek(-500))
	wall.Advance(100 * time.Millisecond)
	assert.Equal(t, -400.0, c.CurrentTime())

	c.SetRate(-0.5)
	assert.Equal(t, -400.0, c.CurrentTime(), "rate change keeps time continuous")
	wall.Advance(100 * time.Millisecond)
	assert.Equal(t, -450.0, c.CurrentTime())

	assert.False(t, c.Seek(math.NaN()))
	assert.False(t, c.Seek(math.Inf(-1)))
	assert.Equal(t, -450.0, c.CurrentTime())

	c.Reset()
	assert.False(t, c.IsRunning())
	assert.Equal(t, 0.0, c.CurrentTime())
}
