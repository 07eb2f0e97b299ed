package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGenerator(t *testing.T) {
	SetDefault(nil)
	t.Cleanup(func() { SetDefault(nil) })

	_, err := Default()
	assert.ErrorIs(t, err, ErrNoDefault)

	_, err = Next()
	assert.ErrorIs(t, err, ErrNoDefault)

	sf, err := New(Config{OriginID: 2, ProcessID: 3, Clock: &MockClock{CurrentTime: DefaultEpoch + 42}})
	require.NoError(t, err)
	SetDefault(sf)

	got, err := Default()
	require.NoError(t, err)
	assert.Same(t, sf, got)

	id, err := Next()
	require.NoError(t, err)
	assert.Equal(t, fields{delta: 42, process: 3, origin: 2}, decode(id))
}
