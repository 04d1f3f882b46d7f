// Package xrotate 为日志文件提供按大小轮转的写入器。
//
// 基于 gopkg.in/natefinch/lumberjack.v2，xlog 在配置了日志文件时使用它作为输出：
//
//	r, err := xrotate.NewLumberjack("/var/log/xsky/agent.log",
//	    xrotate.WithMaxSize(100),
//	    xrotate.WithMaxBackups(3),
//	)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
package xrotate
