// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xid: 链路与段 ID 生成器，支持 UUID 与 sonyflake
package util
