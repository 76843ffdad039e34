package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortPrefersVersionThenCommit(t *testing.T) {
	v, c := Version, Commit
	t.Cleanup(func() { Version, Commit = v, c })

	Version, Commit = "dev", "unknown"
	assert.Equal(t, "dev", Short())

	Commit = "abc1234"
	assert.Equal(t, "abc1234", Short())

	Version = "v0.3.0"
	assert.Equal(t, "v0.3.0", Short())
	assert.Equal(t, "v0.3.0 (commit abc1234, built unknown)", Long())
}
