package xcollector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

func TestCodec_Commands(t *testing.T) {
	want := Commands{Commands: []Command{
		{Name: "ConfigurationDiscoveryCommand", Args: []xsegment.KeyValue{{Key: "UUID", Value: "u-1"}}},
		{Name: "Noop"},
	}}
	b, err := codec{}.Marshal(&want)
	require.NoError(t, err)

	var got Commands
	require.NoError(t, codec{}.Unmarshal(b, &got))
	assert.Equal(t, want, got)
}

func TestCodec_Segment(t *testing.T) {
	seg := xsegment.Segment{TraceID: "t", SegmentID: "s", Service: "svc"}
	byValue, err := codec{}.Marshal(seg)
	require.NoError(t, err)
	byPtr, err := codec{}.Marshal(&seg)
	require.NoError(t, err)
	assert.Equal(t, byValue, byPtr)

	var got xsegment.Segment
	require.NoError(t, codec{}.Unmarshal(byPtr, &got))
	assert.Equal(t, seg, got)
}

func TestCodec_Errors(t *testing.T) {
	_, err := codec{}.Marshal("nope")
	assert.ErrorIs(t, err, ErrUnsupportedMessage)
	assert.ErrorIs(t, codec{}.Unmarshal(nil, new(int)), ErrUnsupportedMessage)

	var c Commands
	assert.ErrorIs(t, codec{}.Unmarshal([]byte{0x0a, 0x09}, &c), ErrMalformedCommands)
	assert.Equal(t, "proto", codec{}.Name())
}

func TestCodec_EmptyCommands(t *testing.T) {
	b, err := codec{}.Marshal(&Commands{})
	require.NoError(t, err)
	assert.Empty(t, b)
	var c Commands
	require.NoError(t, codec{}.Unmarshal(b, &c))
	assert.Empty(t, c.Commands)
}
