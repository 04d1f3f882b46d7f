package xsw8_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsky/pkg/trace/xsw8"
)

const sampleHeader = "1-MQ==-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA=="

func TestDecode_Basic(t *testing.T) {
	c, err := xsw8.Decode(sampleHeader)
	require.NoError(t, err)

	assert.Equal(t, xsw8.Context{
		Sample:                true,
		ParentTraceID:         "1",
		ParentSegmentID:       "5",
		ParentSpanID:          3,
		ParentService:         "mesh",
		ParentServiceInstance: "instance",
		DestinationEndpoint:   "/api/v1/health",
		DestinationAddress:    "example.com:8080",
	}, c)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"空字符串", "", xsw8.ErrMalformedHeader},
		{"少一个字段", "1-MQ==-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=", xsw8.ErrMalformedHeader},
		{"多一个字段", sampleHeader + "-aG9nZWhvZ2U=", xsw8.ErrMalformedHeader},
		{"采样标志为3", "3-MQ==-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSampleFlag},
		{"采样标志为空", "-MQ==-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSampleFlag},
		{"SpanID非数字", "1-MQ==-NQ==-x-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSpanID},
		{"SpanID带正号", "1-MQ==-NQ==-+3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSpanID},
		{"SpanID超出int32", "1-MQ==-NQ==-2147483648-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSpanID},
		{"SpanID为uint32最大值", "1-MQ==-NQ==-4294967295-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSpanID},
		{"SpanID溢出", "1-MQ==-NQ==-4294967296-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidSpanID},
		{"TraceID非法base64", "1-!!!-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidEncoding},
		{"缺少填充", "1-MQ-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-ZXhhbXBsZS5jb206ODA4MA==", xsw8.ErrInvalidEncoding},
		{"地址非UTF8", "1-MQ==-NQ==-3-bWVzaA==-aW5zdGFuY2U=-L2FwaS92MS9oZWFsdGg=-//4=", xsw8.ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := xsw8.Decode(tt.header)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, c)
		})
	}
}

func TestDecode_EmptyFields(t *testing.T) {
	// 空字符串 base64 后仍为空，合法
	c, err := xsw8.Decode("0---0----")
	require.NoError(t, err)
	assert.False(t, c.Sample)
	assert.Empty(t, c.ParentTraceID)
	assert.Zero(t, c.ParentSpanID)
}

func TestEncode(t *testing.T) {
	got := xsw8.Encode(xsw8.Context{
		Sample:                true,
		ParentTraceID:         "1",
		ParentSegmentID:       "5",
		ParentSpanID:          3,
		ParentService:         "mesh",
		ParentServiceInstance: "instance",
		DestinationEndpoint:   "/api/v1/health",
		DestinationAddress:    "example.com:8080",
	})
	assert.Equal(t, sampleHeader, got)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  xsw8.Context
	}{
		{"零值", xsw8.Context{}},
		{"未采样", xsw8.Context{ParentTraceID: "a", ParentSegmentID: "b", ParentSpanID: 1}},
		{"最大SpanID", xsw8.Context{Sample: true, ParentSpanID: xsw8.MaxSpanID}},
		{"含连字符", xsw8.Context{
			Sample:                true,
			ParentTraceID:         "3f2c-41aa-9d0e",
			ParentSegmentID:       "seg-1",
			ParentService:         "order-service",
			ParentServiceInstance: "order-service-7d9f@10.0.0.3",
			DestinationEndpoint:   "/v1/orders/{id}",
			DestinationAddress:    "orders.svc:8080",
		}},
		{"中文", xsw8.Context{Sample: true, ParentService: "订单服务", DestinationEndpoint: "/查询"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xsw8.Decode(xsw8.Encode(tt.ctx))
			require.NoError(t, err)
			assert.Equal(t, tt.ctx, got)
		})
	}
}
