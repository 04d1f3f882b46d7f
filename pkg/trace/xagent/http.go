package xagent

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/trace/xsw8"
	"github.com/omeyang/xsky/pkg/trace/xtracing"
)

// =============================================================================
// 服务端
// =============================================================================

// HTTPMiddleware 为每个请求创建入口 Span，名称为 URL 路径。
//
// 请求携带合法 sw8 头时继续上游链路。TracingContext 通过 xtracing.FromContext
// 在 handler 中可取。响应码 >= 500 或 handler panic 时标记错误；
// 任何返回路径都会关闭 Span 并提交段，panic 在提交后继续向上抛出。
func (a *Agent) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		pc, ok, err := xsw8.ExtractFromHTTPHeader(r.Header)
		tc := a.continueFrom(ctx, pc, ok, err)

		span, err := tc.CreateEntrySpan(r.URL.Path)
		if err != nil {
			a.logger.Warn(ctx, "xagent: create entry span failed", xlog.Err(err))
			next.ServeHTTP(w, r)
			return
		}
		_ = span.SetComponentID(ComponentHTTPServer)
		_ = span.AddTag(TagHTTPMethod, r.Method)
		_ = span.AddTag(TagURL, r.URL.String())

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			p := recover()
			status := rec.statusCode()
			if p != nil {
				status = http.StatusInternalServerError
				markError(span, logEventPanic, fmt.Errorf("%v", p))
			}
			_ = span.AddTag(TagStatusCode, strconv.Itoa(status))
			if status >= http.StatusInternalServerError {
				_ = span.SetError(true)
			}
			a.finish(ctx, tc, span)
			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(rec, r.WithContext(xtracing.NewContext(ctx, tc)))
	})
}

// statusRecorder 记录 handler 写出的状态码。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 访问底层 Writer。
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (r *statusRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// =============================================================================
// 客户端
// =============================================================================

// Transport 返回为请求创建出口 Span 并注入 sw8 头的 RoundTripper，base 为 nil 时使用
// http.DefaultTransport。
//
// 请求 ctx 中没有 TracingContext（或尚无入口 Span）时直接透传。
// 原请求不会被修改。
func (a *Agent) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{agent: a, base: base}
}

type transport struct {
	agent *Agent
	base  http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	tc, ok := xtracing.FromContext(ctx)
	if !ok {
		return t.base.RoundTrip(req)
	}
	peer := req.URL.Host
	if peer == "" {
		peer = unknownPeerMarker
	}
	span, err := tc.CreateExitSpan(req.URL.Path, peer)
	if err != nil {
		t.agent.logger.Debug(ctx, "xagent: skip exit span", xlog.Err(err))
		return t.base.RoundTrip(req)
	}
	_ = span.SetComponentID(ComponentHTTPClient)
	_ = span.SetLayer(xsegment.SpanLayerHTTP)
	_ = span.AddTag(TagHTTPMethod, req.Method)
	_ = span.AddTag(TagURL, req.URL.String())
	defer t.agent.closeExit(ctx, tc, span)

	out := req.Clone(ctx)
	if header, err := tc.EncodePropagation(req.URL.Path, peer); err == nil {
		xsw8.InjectToHTTPHeader(out.Header, header)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		markError(span, logEventError, err)
		return nil, err
	}
	_ = span.AddTag(TagStatusCode, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		_ = span.SetError(true)
	}
	return resp, nil
}
