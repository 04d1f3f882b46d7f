package xcollector

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

const (
	// ServiceName 收集服务全名。
	ServiceName = "skywalking.v3.TraceSegmentReportService"
	// CollectMethod collect 方法的完整路径。
	CollectMethod = "/" + ServiceName + "/collect"
)

var (
	// ErrUnsupportedMessage 编解码器收到未知消息类型。
	ErrUnsupportedMessage = errors.New("xcollector: unsupported message type")
	// ErrMalformedCommands Commands 线格式损坏。
	ErrMalformedCommands = errors.New("xcollector: malformed commands")
)

// Command 收集器下发的指令。
type Command struct {
	Name string
	Args []xsegment.KeyValue
}

// Commands collect 的响应。
type Commands struct {
	Commands []Command
}

// Commands{1 commands}; Command{1 command, 2 args}
const (
	fieldCommands    protowire.Number = 1
	fieldCommandName protowire.Number = 1
	fieldCommandArgs protowire.Number = 2
)

// codec 按 protobuf 线格式编解码 xsegment.Segment 与 Commands。
// 名称取 "proto"，content-type 与标准 protobuf 客户端一致。
type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *xsegment.Segment:
		return xsegment.Marshal(*m)
	case xsegment.Segment:
		return xsegment.Marshal(m)
	case *Commands:
		return marshalCommands(m), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMessage, v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *xsegment.Segment:
		seg, err := xsegment.Unmarshal(data)
		if err != nil {
			return err
		}
		*m = seg
		return nil
	case *Commands:
		cmds, err := unmarshalCommands(data)
		if err != nil {
			return err
		}
		*m = cmds
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, v)
	}
}

func marshalCommands(c *Commands) []byte {
	var b []byte
	for _, cmd := range c.Commands {
		var inner []byte
		if cmd.Name != "" {
			inner = protowire.AppendTag(inner, fieldCommandName, protowire.BytesType)
			inner = protowire.AppendString(inner, cmd.Name)
		}
		for _, kv := range cmd.Args {
			inner = protowire.AppendTag(inner, fieldCommandArgs, protowire.BytesType)
			inner = protowire.AppendBytes(inner, xsegment.AppendKeyValue(nil, kv))
		}
		b = protowire.AppendTag(b, fieldCommands, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b
}

func unmarshalCommands(b []byte) (Commands, error) {
	var c Commands
	err := eachBytesField(b, func(num protowire.Number, v []byte) error {
		if num != fieldCommands {
			return nil
		}
		cmd, err := unmarshalCommand(v)
		if err != nil {
			return err
		}
		c.Commands = append(c.Commands, cmd)
		return nil
	})
	return c, err
}

func unmarshalCommand(b []byte) (Command, error) {
	var cmd Command
	err := eachBytesField(b, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldCommandName:
			cmd.Name = string(v)
		case fieldCommandArgs:
			kv, err := xsegment.UnmarshalKeyValue(v)
			if err != nil {
				return err
			}
			cmd.Args = append(cmd.Args, kv)
		}
		return nil
	})
	return cmd, err
}

// eachBytesField 遍历 length-delimited 字段，其余线类型跳过。
func eachBytesField(b []byte, fn func(protowire.Number, []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedCommands, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedCommands, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedCommands, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}
