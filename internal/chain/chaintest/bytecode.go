package chaintest

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	opStop         = 0x00
	opDup1         = 0x80
	opCodeCopy     = 0x39
	opPush1        = 0x60
	opPush2        = 0x61
	opPush32       = 0x7f
	opLog0         = 0xa0
	opReturn       = 0xf3
	opRevert       = 0xfd
	initHeaderSize = 12
)

// InitCode wraps runtime code in a constructor that returns it.
func InitCode(runtime []byte) []byte {
	code := []byte{
		opPush2, byte(len(runtime) >> 8), byte(len(runtime)),
		opDup1,
		opPush1, initHeaderSize,
		opPush1, 0x00,
		opCodeCopy,
		opPush1, 0x00,
		opReturn,
	}
	return append(code, runtime...)
}

// EmitterRuntime returns code that ignores its calldata and emits one log with
// the given topics and data on every call.
func EmitterRuntime(topics []common.Hash, data []byte) []byte {
	if len(topics) > 4 {
		panic("at most four topics")
	}

	var code []byte
	for i := len(topics) - 1; i >= 0; i-- {
		code = append(code, opPush32)
		code = append(code, topics[i].Bytes()...)
	}

	offset := len(code) + 14
	code = append(code,
		opPush2, byte(len(data)>>8), byte(len(data)),
		opDup1,
		opPush2, byte(offset>>8), byte(offset),
		opPush1, 0x00,
		opCodeCopy,
		opPush1, 0x00,
		byte(opLog0+len(topics)),
		opStop,
	)
	return append(code, data...)
}

// ReverterRuntime returns code that reverts every call with Error(reason). An
// empty reason reverts without data.
func ReverterRuntime(reason string) []byte {
	var data []byte
	if reason != "" {
		data = RevertData(reason)
	}

	const header = 13
	code := []byte{
		opPush2, byte(len(data) >> 8), byte(len(data)),
		opDup1,
		opPush2, 0x00, header,
		opPush1, 0x00,
		opCodeCopy,
		opPush1, 0x00,
		opRevert,
	}
	return append(code, data...)
}

// RevertData encodes reason the way Solidity's require does.
func RevertData(reason string) []byte {
	stringTy, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return append(selector, packed...)
}
