package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/allbin/go-callerid"
	"github.com/stretchr/testify/assert"
)

// chunkSource returns its chunks in order, then ErrNotConnected
type chunkSource struct {
	chunks []string
	failed bool
}

func (s *chunkSource) ReadInto(buf []byte) (int, error) {
	if !s.failed {
		s.failed = true
		return 0, errors.New("input/output error")
	}
	if len(s.chunks) == 0 {
		return 0, callerid.ErrNotConnected
	}
	n := copy(buf, s.chunks[0])
	s.chunks = s.chunks[1:]
	return n, nil
}

func TestCopyUntilDone(t *testing.T) {
	config := callerid.DefaultConfig()
	config.ReadFailureBackoff = 0

	src := &chunkSource{chunks: []string{"RING\r\n", "", "NMBR=5551234567\r\n"}}
	var out bytes.Buffer

	n, err := copyUntilDone(context.Background(), &out, src, config)
	assert.ErrorIs(t, err, callerid.ErrNotConnected)
	assert.Equal(t, int64(len("RING\r\nNMBR=5551234567\r\n")), n)
	assert.Equal(t, "RING\r\nNMBR=5551234567\r\n", out.String())
}

func TestCopyUntilDoneCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := copyUntilDone(ctx, &bytes.Buffer{}, &chunkSource{}, callerid.DefaultConfig())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
