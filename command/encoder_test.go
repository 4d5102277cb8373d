package command

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderFinishFixesHeader(t *testing.T) {
	e := NewEncoder()
	e.CreateBuffer(0, 16, 1)
	e.Submit()

	buf, err := e.Finish()
	require.NoError(t, err)

	totalLen := binary.LittleEndian.Uint32(buf[0:4])
	cmdCount := binary.LittleEndian.Uint16(buf[4:6])
	flags := binary.LittleEndian.Uint16(buf[6:8])

	require.Equal(t, uint32(len(buf)), totalLen)
	require.Equal(t, uint16(2), cmdCount) // create_buffer + submit, not end
	require.Equal(t, uint16(0), flags)
	require.Equal(t, OpEnd, Op(buf[len(buf)-1]))
}

func TestEncoderFinishTwiceFails(t *testing.T) {
	e := NewEncoder()
	e.Submit()
	_, err := e.Finish()
	require.NoError(t, err)

	_, err = e.Finish()
	require.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestEncoderResetReusesBuffer(t *testing.T) {
	e := NewEncoder()
	e.CreateBuffer(0, 16, 1)
	_, err := e.Finish()
	require.NoError(t, err)

	e.Reset()
	e.Submit()
	buf, err := e.Finish()
	require.NoError(t, err)

	cmdCount := binary.LittleEndian.Uint16(buf[4:6])
	require.Equal(t, uint16(1), cmdCount)
}

func TestCallWasmFuncInlinesArgs(t *testing.T) {
	e := NewEncoder()
	args := []byte{1, 2, 3, 4}
	e.CallWasmFunc(7, 1, 100, 4, args)
	e.Submit()
	buf, err := e.Finish()
	require.NoError(t, err)

	require.Equal(t, OpCallWasmFunc, Op(buf[headerSize]))
	argCountOffset := headerSize + 1 + 2 + 2 + 4 + 4
	require.Equal(t, uint8(len(args)), buf[argCountOffset])
	require.Equal(t, args, buf[argCountOffset+1:argCountOffset+1+len(args)])
}

func TestOpcodeRangesMatchSpec(t *testing.T) {
	require.Equal(t, Op(0x01), OpCreateBuffer)
	require.Equal(t, Op(0x0D), OpCreateRenderBundle)
	require.Equal(t, Op(0x10), OpBeginRenderPass)
	require.Equal(t, Op(0x1A), OpExecuteBundles)
	require.Equal(t, Op(0x20), OpWriteBuffer)
	require.Equal(t, Op(0x25), OpCopyExternalImageToTexture)
	require.Equal(t, Op(0x30), OpInitWasmModule)
	require.Equal(t, Op(0x31), OpCallWasmFunc)
	require.Equal(t, Op(0xF0), OpSubmit)
	require.Equal(t, Op(0xFF), OpEnd)
}
