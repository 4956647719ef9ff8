package debug

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Log("loaded %d nodes", 3)
	LogTiming("roots", time.Now())

	assert.Contains(t, buf.String(), "[arbor] loaded 3 nodes")
	assert.Contains(t, buf.String(), "roots took")
}

func TestLog_Disabled(t *testing.T) {
	SetOutput(nil)
	assert.False(t, Enabled())
	Log("nothing %s", "here")

	c, err := Open()
	assert.NoError(t, err)
	assert.NoError(t, c.Close())
}
