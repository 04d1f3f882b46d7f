package xsw8_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/omeyang/xsky/pkg/trace/xsw8"
)

func TestExtractFromHTTPHeader(t *testing.T) {
	t.Run("nil Header", func(t *testing.T) {
		_, ok, err := xsw8.ExtractFromHTTPHeader(nil)
		assert.False(t, ok)
		assert.NoError(t, err)
	})

	t.Run("缺少头", func(t *testing.T) {
		_, ok, err := xsw8.ExtractFromHTTPHeader(http.Header{})
		assert.False(t, ok)
		assert.NoError(t, err)
	})

	t.Run("空白头视为缺失", func(t *testing.T) {
		h := http.Header{}
		h.Set("SW8", "   ")
		_, ok, err := xsw8.ExtractFromHTTPHeader(h)
		assert.False(t, ok)
		assert.NoError(t, err)
	})

	t.Run("合法头", func(t *testing.T) {
		h := http.Header{}
		h.Set("Sw8", " "+sampleHeader+" ")
		c, ok, err := xsw8.ExtractFromHTTPHeader(h)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "mesh", c.ParentService)
	})

	t.Run("损坏头", func(t *testing.T) {
		h := http.Header{}
		h.Set(xsw8.HeaderName, "1-2-3")
		_, ok, err := xsw8.ExtractFromHTTPHeader(h)
		assert.True(t, ok)
		assert.ErrorIs(t, err, xsw8.ErrMalformedHeader)
	})
}

func TestInjectToHTTPHeader(t *testing.T) {
	h := http.Header{}
	xsw8.InjectToHTTPHeader(h, "old")
	xsw8.InjectToHTTPHeader(h, sampleHeader)
	assert.Equal(t, []string{sampleHeader}, h.Values(xsw8.HeaderName))

	xsw8.InjectToHTTPHeader(h, "")
	assert.Equal(t, sampleHeader, h.Get(xsw8.HeaderName))

	assert.NotPanics(t, func() { xsw8.InjectToHTTPHeader(nil, sampleHeader) })
}

func TestMetadataCarrier(t *testing.T) {
	ctx := xsw8.InjectToOutgoingContext(context.Background(), "stale")
	ctx = xsw8.InjectToOutgoingContext(ctx, sampleHeader)

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{sampleHeader}, md.Get(xsw8.HeaderName))

	// 模拟服务端收到的 metadata
	in := metadata.NewIncomingContext(context.Background(), md)
	c, found, err := xsw8.ExtractFromIncomingContext(in)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(3), c.ParentSpanID)

	_, found, err = xsw8.ExtractFromIncomingContext(context.Background())
	assert.False(t, found)
	assert.NoError(t, err)

	_, found, _ = xsw8.ExtractFromMetadata(metadata.MD{})
	assert.False(t, found)

	assert.Equal(t, context.Background(), xsw8.InjectToOutgoingContext(context.Background(), ""))
}
