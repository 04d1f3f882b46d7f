package xrotate

import "io"

// Rotator 可轮转的日志写入器，所有实现并发安全。
//
// Close 之后 Write 与 Rotate 返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 立即轮转：关闭当前文件，重命名为备份，打开新文件
	Rotate() error
}
