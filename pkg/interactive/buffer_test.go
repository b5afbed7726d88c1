package interactive

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputBuffer_AppendAndRead(t *testing.T) {
	b := newOutputBuffer()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "", b.String())

	b.Append([]byte("hello "))
	b.Append(nil)
	b.Append([]byte("world"))

	assert.Equal(t, 11, b.Len())
	assert.Equal(t, "hello world", b.String())
}

func TestOutputBuffer_Since(t *testing.T) {
	b := newOutputBuffer()
	b.Append([]byte("0123456789"))

	assert.Equal(t, "56789", string(b.Since(5)))
	assert.Nil(t, b.Since(10))
	assert.Nil(t, b.Since(42))
	assert.Nil(t, b.Since(-1))
}

func TestOutputBuffer_SnapshotsArePrefixes(t *testing.T) {
	b := newOutputBuffer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Append([]byte("chunk."))
		}
	}()

	var snapshots []string
	for i := 0; i < 50; i++ {
		snapshots = append(snapshots, b.String())
	}
	wg.Wait()
	final := b.String()

	require.Equal(t, 200*len("chunk."), len(final))
	for _, snap := range snapshots {
		assert.True(t, strings.HasPrefix(final, snap))
	}
}
