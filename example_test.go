package msgbatch_test

import (
	"fmt"
	"slices"

	"github.com/bft-labs/msgbatch"
)

func ExampleNewBatcher() {
	b, err := msgbatch.NewBatcher(10)
	if err != nil {
		panic(err)
	}

	payloads := [][]byte{[]byte("abc"), []byte("defg"), []byte("hi"), []byte("jklmn")}
	_ = b.BatchAndSend(slices.Values(payloads), msgbatch.SendFunc(func(m msgbatch.Message) {
		fmt.Printf("%d bytes in %d payloads\n", m.Size, len(m.Buffers))
	}))
	// Output:
	// 9 bytes in 3 payloads
	// 5 bytes in 1 payloads
}
