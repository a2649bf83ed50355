package object

import (
	"encoding/binary"
	"math"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/utils"
)

func effectiveBitSize(qt dtype.QualifiedType, bitFieldSize int) (int, error) {
	if bitFieldSize != 0 {
		return bitFieldSize, nil
	}
	bytes, err := dtype.Sizeof(qt.Type)
	if err != nil {
		return 0, err
	}
	return int(bytes) * 8, nil
}

func maskSigned(value int64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return value
	}
	u := uint64(value) & utils.AllOnes[uint64](bits)
	signBit := uint64(1) << uint(bits-1)
	if u&signBit != 0 {
		u |= ^utils.AllOnes[uint64](bits)
	}
	return int64(u)
}

func maskUnsigned(value uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return value
	}
	return value & utils.AllOnes[uint64](bits)
}

// SetSigned stores a signed integer or signed-enum value, masked to
// bitFieldSize when nonzero.
func (o *Object) SetSigned(qt dtype.QualifiedType, value int64, bitFieldSize int) error {
	u := dtype.Underlying(qt.Type)
	if (u.Kind() != dtype.KindInt || !u.IsSigned()) && !(u.Kind() == dtype.KindEnum && u.IsSigned()) {
		return drgerr.New(drgerr.Type, "set_signed requires a signed integer or signed-enum type, got %v", u.Kind())
	}

	bits, err := effectiveBitSize(qt, bitFieldSize)
	if err != nil {
		return err
	}

	masked := maskSigned(value, bits)
	*o = Object{
		Program:      o.Program,
		Type:         qt,
		Kind:         KindSigned,
		BitSize:      bits,
		repr:         reprValue,
		order:        o.order,
		inline:       uint64(masked),
		inlineValid:  true,
		bitFieldSize: bitFieldSize,
	}
	return nil
}

// SetUnsigned stores an unsigned integer, bool, enum-of-unsigned, or pointer
// value, masked to bitFieldSize when nonzero.
func (o *Object) SetUnsigned(qt dtype.QualifiedType, value uint64, bitFieldSize int) error {
	u := dtype.Underlying(qt.Type)
	switch u.Kind() {
	case dtype.KindInt:
		if u.IsSigned() {
			return drgerr.New(drgerr.Type, "set_unsigned requires an unsigned integer type")
		}
	case dtype.KindBool, dtype.KindPointer:
	case dtype.KindEnum:
		if u.IsSigned() {
			return drgerr.New(drgerr.Type, "set_unsigned requires an unsigned-enum type")
		}
	default:
		return drgerr.New(drgerr.Type, "set_unsigned requires an unsigned integer, bool, enum or pointer type, got %v", u.Kind())
	}

	bits, err := effectiveBitSize(qt, bitFieldSize)
	if err != nil {
		return err
	}

	masked := maskUnsigned(value, bits)
	*o = Object{
		Program:      o.Program,
		Type:         qt,
		Kind:         KindUnsigned,
		BitSize:      bits,
		repr:         reprValue,
		order:        o.order,
		inline:       masked,
		inlineValid:  true,
		bitFieldSize: bitFieldSize,
	}
	return nil
}

// SetFloat stores a floating-point value.
func (o *Object) SetFloat(qt dtype.QualifiedType, value float64) error {
	u := dtype.Underlying(qt.Type)
	if u.Kind() != dtype.KindFloat {
		return drgerr.New(drgerr.Type, "set_float requires a floating type, got %v", u.Kind())
	}

	bytes, err := dtype.Sizeof(qt.Type)
	if err != nil {
		return err
	}

	var bits uint64
	switch bytes {
	case 4:
		bits = uint64(math.Float32bits(float32(value)))
	default:
		bits = math.Float64bits(value)
	}

	*o = Object{
		Program:     o.Program,
		Type:        qt,
		Kind:        KindFloat,
		BitSize:     int(bytes) * 8,
		repr:        reprValue,
		order:       o.order,
		inline:      bits,
		inlineValid: true,
	}
	return nil
}

// SetBuffer stores raw bytes, inline when they fit in eight bytes plus a
// sub-byte bit offset, otherwise in a newly owned byte slice.
func (o *Object) SetBuffer(qt dtype.QualifiedType, data []byte, bitOffset int, bitFieldSize int, order binary.ByteOrder) error {
	if bitOffset >= 8 {
		return drgerr.New(drgerr.InvalidArgument, "set_buffer requires bit_offset < 8, got %d", bitOffset)
	}

	bits, err := effectiveBitSize(qt, bitFieldSize)
	if err != nil {
		return err
	}

	*o = Object{
		Program:      o.Program,
		Type:         qt,
		Kind:         kindForType(qt.Type),
		BitSize:      bits,
		repr:         reprValue,
		order:        order,
		bitFieldSize: bitFieldSize,
		valBitOffset: bitOffset,
	}

	totalBits := bits + bitOffset
	if totalBits <= 64 {
		window := data
		if order == binary.BigEndian {
			windowBytes := (totalBits + 7) / 8
			if windowBytes > len(data) {
				windowBytes = len(data)
			}
			reversed := make([]byte, windowBytes)
			for i, b := range data[:windowBytes] {
				reversed[windowBytes-1-i] = b
			}
			window = reversed
		}
		view := utils.CreateBufView(window)
		o.inline = view.Read(0, totalBits)
		o.inlineValid = true
		return nil
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	o.buf = owned
	return nil
}

// SetReference turns the object into a reference into target memory: no
// memory read occurs at call time.
func (o *Object) SetReference(qt dtype.QualifiedType, address uint64, bitOffset int, bitFieldSize int, order binary.ByteOrder) error {
	bits, err := effectiveBitSize(qt, bitFieldSize)
	if err != nil {
		return err
	}

	kind := kindForType(qt.Type)
	if kind == KindIncompleteValue {
		kind = KindIncompleteReference
	}

	*o = Object{
		Program:      o.Program,
		Type:         qt,
		Kind:         kind,
		BitSize:      bits,
		repr:         reprReference,
		order:        order,
		address:      address,
		bitOffset:    bitOffset,
		bitFieldSize: bitFieldSize,
	}
	return nil
}
