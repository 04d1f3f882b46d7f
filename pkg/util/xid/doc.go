// Package xid 提供链路追踪使用的唯一标识生成器。
//
// # 概述
//
// 追踪系统中 TraceId 与 SegmentId 均为不透明字符串，只要求全局唯一。
// 本包定义 [Generator] 接口，并提供两种实现：
//
//   - [UUIDGenerator]：基于 UUID v4，输出 32 位小写十六进制（去掉连字符），
//     与 SkyWalking 各语言探针生成的 ID 格式一致，是默认实现
//   - [SonyflakeGenerator]：基于 Sonyflake 的 63 位有序 ID，输出 16 位十六进制，
//     适用于希望 ID 大致按时间有序的场景
//
// # 使用
//
//	gen := xid.NewUUIDGenerator()
//	traceID := gen.NewID()
//
//	sf, err := xid.NewSonyflakeGenerator(xid.WithMachineID(func() (uint16, error) { return 7, nil }))
//	if err != nil {
//	    return err
//	}
//	segmentID := sf.NewID()
//
// 两种实现都是并发安全的。
package xid
