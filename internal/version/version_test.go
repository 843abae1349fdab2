package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.Contains(t, info, "planfilter "+Short())
	assert.Contains(t, info, "commit: "+Commit)
	assert.Contains(t, info, runtime.Version())
}
