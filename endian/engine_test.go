package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEngines(t *testing.T) {
	require.Equal(t, EndianEngine(binary.LittleEndian), GetLittleEndianEngine())
	require.Equal(t, EndianEngine(binary.BigEndian), GetBigEndianEngine())

	// Engines are stateless singletons; repeated calls compare equal.
	require.Equal(t, GetLittleEndianEngine(), GetLittleEndianEngine())
	require.Equal(t, GetBigEndianEngine(), GetBigEndianEngine())
}

func TestEngine_PutAndAppendAgree(t *testing.T) {
	// Archive sections mix Put (fixed layouts) and Append (growing segment
	// buffers); both forms must produce identical bytes for each engine.
	values64 := []uint64{0, 1, 0x1122334455667788, ^uint64(0)}
	values32 := []uint32{0, 1, 0xAABBCCDD, ^uint32(0)}

	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		for _, v := range values64 {
			fixed := make([]byte, 8)
			engine.PutUint64(fixed, v)
			require.Equal(t, fixed, engine.AppendUint64(nil, v))
			require.Equal(t, v, engine.Uint64(fixed))
		}
		for _, v := range values32 {
			fixed := make([]byte, 4)
			engine.PutUint32(fixed, v)
			require.Equal(t, fixed, engine.AppendUint32(nil, v))
			require.Equal(t, v, engine.Uint32(fixed))
		}
	}
}

func TestEngine_ByteOrderDiffers(t *testing.T) {
	le := GetLittleEndianEngine().AppendUint64(nil, 0x0102030405060708)
	be := GetBigEndianEngine().AppendUint64(nil, 0x0102030405060708)

	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, le)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, be)
}

func TestCheckEndianness(t *testing.T) {
	native := CheckEndianness()
	require.Contains(t, []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}, native)

	// Detection is stable and the two predicates are exact inverses.
	for range 10 {
		require.Equal(t, native, CheckEndianness())
	}
	require.NotEqual(t, IsNativeLittleEndian(), IsNativeBigEndian())
	require.Equal(t, IsNativeLittleEndian(), native == binary.LittleEndian)
}

func TestCompareNativeEndian(t *testing.T) {
	if IsNativeLittleEndian() {
		require.True(t, CompareNativeEndian(GetLittleEndianEngine()))
		require.False(t, CompareNativeEndian(GetBigEndianEngine()))
	} else {
		require.True(t, CompareNativeEndian(GetBigEndianEngine()))
		require.False(t, CompareNativeEndian(GetLittleEndianEngine()))
	}
}
