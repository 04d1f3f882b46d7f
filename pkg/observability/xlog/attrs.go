package xlog

import (
	"log/slog"
	"time"
)

// 标准字段名
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyComponent = "component"
	KeySegmentID = "segment_id"
	KeyService   = "service"
	KeyInstance  = "instance"
	KeySink      = "sink"
	KeyCount     = "count"
	KeyAddress   = "address"
)

// Err 错误属性，nil 返回空属性（被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 人类可读的耗时属性。
func Duration(d time.Duration) slog.Attr { return slog.String(KeyDuration, d.String()) }

// Component 日志来源组件。
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

// SegmentID 追踪段 ID，用于上报失败等与某个段相关的日志。
func SegmentID(id string) slog.Attr { return slog.String(KeySegmentID, id) }

// Service 服务名。
func Service(name string) slog.Attr { return slog.String(KeyService, name) }

// Instance 实例名。
func Instance(name string) slog.Attr { return slog.String(KeyInstance, name) }

// Sink 投递目标名。
func Sink(name string) slog.Attr { return slog.String(KeySink, name) }

// Count 计数。
func Count(n int64) slog.Attr { return slog.Int64(KeyCount, n) }

// Address 网络地址。
func Address(addr string) slog.Attr { return slog.String(KeyAddress, addr) }
