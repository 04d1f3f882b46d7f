package xagent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/trace/xsw8"
	"github.com/omeyang/xsky/pkg/trace/xtracing"
)

const method = "/inventory.Stock/Reserve"

func TestUnaryInterceptors(t *testing.T) {
	h := startAgent(t, testConfig())
	server := h.agent.UnaryServerInterceptor()
	client := h.agent.UnaryClientInterceptor()

	var outgoing xsw8.Context
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, ok := metadata.FromOutgoingContext(ctx)
		require.True(t, ok)
		pc, found, err := xsw8.ExtractFromMetadata(md)
		require.True(t, found)
		require.NoError(t, err)
		outgoing = pc
		return status.Error(codes.Unavailable, "stock down")
	}

	handler := func(ctx context.Context, _ any) (any, error) {
		_, ok := xtracing.FromContext(ctx)
		require.True(t, ok)
		err := client(ctx, "/stock.Stock/Get", nil, nil, nil, invoker)
		assert.Equal(t, codes.Unavailable, status.Code(err))
		return "done", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(xsw8.HeaderName, upstreamHeader()))
	resp, err := server(ctx, "req", &grpc.UnaryServerInfo{FullMethod: method}, handler)
	require.NoError(t, err)
	assert.Equal(t, "done", resp)
	h.stop()

	assert.Equal(t, "trace-up", outgoing.ParentTraceID)
	assert.Equal(t, uint32(1), outgoing.ParentSpanID)
	assert.Equal(t, "/stock.Stock/Get", outgoing.DestinationEndpoint)
	assert.Equal(t, "unknown", outgoing.DestinationAddress)

	segs := h.sink.all()
	require.Len(t, segs, 1)
	require.Len(t, segs[0].Spans, 2)

	exit, entry := segs[0].Spans[0], segs[0].Spans[1]
	assert.Equal(t, xsegment.SpanTypeExit, exit.Type)
	assert.Equal(t, xsegment.SpanLayerRPCFramework, exit.Layer)
	assert.True(t, exit.IsError)
	code, _ := tagValue(exit, "rpc.status_code")
	assert.Equal(t, "Unavailable", code)

	assert.Equal(t, xsegment.SpanTypeEntry, entry.Type)
	assert.Equal(t, method, entry.OperationName)
	assert.Equal(t, int32(23), entry.ComponentID)
	assert.False(t, entry.IsError)
	require.Len(t, entry.Refs, 1)
	assert.Equal(t, "seg-up", entry.Refs[0].ParentSegmentID)
}

func TestUnaryServerInterceptor_HandlerError(t *testing.T) {
	h := startAgent(t, testConfig())
	server := h.agent.UnaryServerInterceptor()

	boom := status.Error(codes.NotFound, "no such order")
	_, err := server(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: method},
		func(context.Context, any) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	h.stop()

	segs := h.sink.all()
	require.Len(t, segs, 1)
	entry := segs[0].Spans[0]
	assert.True(t, entry.IsError)
	assert.Empty(t, entry.Refs)
	code, _ := tagValue(entry, "rpc.status_code")
	assert.Equal(t, "NotFound", code)
}

func TestUnaryServerInterceptor_Panic(t *testing.T) {
	h := startAgent(t, testConfig())
	server := h.agent.UnaryServerInterceptor()

	assert.Panics(t, func() {
		_, _ = server(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: method},
			func(context.Context, any) (any, error) { panic(errors.New("nil map")) })
	})
	h.stop()

	segs := h.sink.all()
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Spans[0].IsError)
}

func TestUnaryClientInterceptor_WithoutContext(t *testing.T) {
	h := startAgent(t, testConfig())
	client := h.agent.UnaryClientInterceptor()

	called := false
	err := client(context.Background(), method, nil, nil, nil,
		func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
			called = true
			_, ok := metadata.FromOutgoingContext(ctx)
			assert.False(t, ok)
			return nil
		})
	require.NoError(t, err)
	assert.True(t, called)
	h.stop()
	assert.Empty(t, h.sink.all())
}
