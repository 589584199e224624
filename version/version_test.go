package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	assert.Equal(t, "dev", GetFullVersion())

	old := Version
	t.Cleanup(func() { Version = old })
	Version, GitCommit, BuildDate = "1.2.0", "abc123", "2026-10-18"
	assert.Equal(t, "1.2.0", GetVersion())
	assert.Equal(t, "1.2.0 (commit abc123, built 2026-10-18)", GetFullVersion())
}
