package xid_test

import (
	"fmt"

	"github.com/omeyang/xsky/pkg/util/xid"
)

func ExampleUUIDGenerator() {
	gen := xid.NewUUIDGenerator()
	id := gen.NewID()
	fmt.Println(len(id))
	// Output: 32
}
