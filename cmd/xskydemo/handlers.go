package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// maxDownstreamBody 读取下游响应体的上限。
const maxDownstreamBody = 4 << 10

// pingHandler 处理 GET /ping：经 client 调用 downstream，并把下游响应拼进回复。
// client 的 Transport 负责创建出口 Span 并注入 sw8 头。
func pingHandler(client *http.Client, downstream string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, downstream, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownstreamBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if resp.StatusCode != http.StatusOK {
			http.Error(w, "downstream: "+resp.Status, http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, "ping -> %s\n", bytes.TrimSpace(body))
	})
	return mux
}

// pongHandler 处理 GET /pong。
func pongHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pong", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong\n")
	})
	return mux
}
