package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReal_After(t *testing.T) {
	var c Clock = Real{}
	start := c.Now()
	select {
	case fired := <-c.After(10 * time.Millisecond):
		assert.False(t, fired.Before(start))
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestUUIDGenerator(t *testing.T) {
	var g IDGenerator = UUIDGenerator{}
	a, b := g.New(), g.New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
