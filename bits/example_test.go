package bits_test

import (
	"fmt"

	"github.com/MeloQi/pushbits/bits"
)

func ExampleBits_Push() {
	b := bits.New32(0)
	b.Push(5, 0b10110)
	b.PushBool(true)
	fmt.Printf("%b %d\n", b.Get(), b.Get())

	b = bits.New32(0)
	b.Push(8, 0b11100110)
	b.Push(5, 0b10001)
	fmt.Printf("%b\n", b.Get())

	// Output:
	// 101101 45
	// 1110011010001
}

func ExampleBits_Pop() {
	b := bits.New32(0xDEADBEEF)
	fmt.Printf("%#x %#x %#x %d\n", b.Pop(12), b.Pop(12), b.Pop(8), b.Get())

	// Output:
	// 0xdea 0xdbe 0xef 0
}

func ExampleBits_PopBool() {
	b := bits.New32(0b101)
	b.Push(bits.BitWidth32-3, 0)
	fmt.Println(b.PopBool(), b.PopBool(), b.PopBool())

	// Output:
	// true false true
}

func ExamplePushValue() {
	var (
		kind  uint8  = 0x3
		flags uint16 = 0x2A
	)
	b := bits.New32(0)
	bits.PushValue(&b, 3, kind)
	bits.PushValue(&b, 6, flags)
	fmt.Println(b.String()[32-9:])

	// Output:
	// 011101010
}
