package object

import (
	"encoding/binary"
	"math"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/utils"
)

// byteWidth returns the number of bytes a read/write of BitSize bits at the
// object's bit offset must touch, rounding up as ceil((bit_size+offset)/8).
func (o *Object) byteWidth() int {
	offset := o.bitOffsetForReprBits()
	return (o.BitSize + offset + 7) / 8
}

func (o *Object) bitOffsetForReprBits() int {
	if o.repr == reprReference {
		return o.bitOffset
	}
	return o.valBitOffset
}

// materialize fetches the raw bits backing the object: for a value it reads
// from inline storage or the owned buffer; for a reference it performs a
// single memory fetch through Program.
func (o *Object) materialize() (uint64, error) {
	if o.repr == reprValue {
		if o.inlineValid {
			return o.inline, nil
		}
		view := utils.CreateBufView(o.buf)
		return view.Read(o.valBitOffset, o.BitSize), nil
	}

	width := o.byteWidth()
	buf := make([]byte, width)
	if o.Program == nil {
		return 0, drgerr.Faultf(o.address, "object has no memory reader attached")
	}
	if err := o.Program.ReadMemory(buf, o.address, false); err != nil {
		return 0, err
	}

	if o.order == binary.BigEndian {
		reversed := make([]byte, width)
		for i, b := range buf {
			reversed[width-1-i] = b
		}
		buf = reversed
	}

	view := utils.CreateBufView(buf)
	return view.Read(o.bitOffset, o.BitSize), nil
}

// ReadValue returns the object's raw bits, reading target memory for a
// reference. It never modifies the object.
func (o *Object) ReadValue() (uint64, error) {
	return o.materialize()
}

// ReadSigned enforces signed-integer/enum kind and sign-extends the raw bits
// per BitSize.
func (o *Object) ReadSigned() (int64, error) {
	if o.Kind != KindSigned {
		return 0, drgerr.New(drgerr.Type, "read_signed on a %v object", o.Kind)
	}
	raw, err := o.materialize()
	if err != nil {
		return 0, err
	}
	return maskSigned(int64(raw), o.BitSize), nil
}

// ReadUnsigned enforces unsigned-integer/bool/enum/pointer kind.
func (o *Object) ReadUnsigned() (uint64, error) {
	if o.Kind != KindUnsigned {
		return 0, drgerr.New(drgerr.Type, "read_unsigned on a %v object", o.Kind)
	}
	raw, err := o.materialize()
	if err != nil {
		return 0, err
	}
	return maskUnsigned(raw, o.BitSize), nil
}

// ReadFloat enforces floating kind and reinterprets the raw bits as
// IEEE-754 using BitSize to pick the 32/64-bit format.
func (o *Object) ReadFloat() (float64, error) {
	if o.Kind != KindFloat {
		return 0, drgerr.New(drgerr.Type, "read_float on a %v object", o.Kind)
	}
	raw, err := o.materialize()
	if err != nil {
		return 0, err
	}
	if o.BitSize == 32 {
		return float64(math.Float32frombits(uint32(raw))), nil
	}
	return math.Float64frombits(raw), nil
}
