package object

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/utils"
)

// Slice derives an object within the same container as src, retyped to
// newQT at a bit offset relative to src's own bit position. A reference
// source yields a reference with the offset folded into address/bit-offset;
// a value source yields a value with the offset folded into its internal
// bit-offset (recomputing buffer-inline status).
func Slice(src *Object, newQT dtype.QualifiedType, bitOffset int, bitFieldSize int) (*Object, error) {
	bits, err := effectiveBitSize(newQT, bitFieldSize)
	if err != nil {
		return nil, err
	}

	dst := &Object{Program: src.Program, Type: newQT, BitSize: bits, order: src.order, bitFieldSize: bitFieldSize}
	dst.Kind = kindForType(newQT.Type)

	switch src.repr {
	case reprReference:
		totalBit := src.bitOffset + bitOffset
		dst.repr = reprReference
		dst.address = src.address + uint64(totalBit/8)
		dst.bitOffset = totalBit % 8
		if dst.Kind == KindIncompleteValue {
			dst.Kind = KindIncompleteReference
		}
		return dst, nil

	case reprValue:
		dst.repr = reprValue
		raw, err := src.materialize()
		if err != nil {
			return nil, err
		}

		if src.inlineValid {
			shifted := raw >> uint(bitOffset)
			dst.inline = maskUnsigned(shifted, bits)
			dst.inlineValid = true
			return dst, nil
		}

		totalBit := src.valBitOffset + bitOffset
		if bits+totalBit%8 <= 64 {
			view := utils.CreateBufView(src.buf)
			dst.inline = view.Read(totalBit, bits)
			dst.inlineValid = true
			return dst, nil
		}

		dst.buf = src.buf
		dst.valBitOffset = totalBit
		return dst, nil

	default:
		return nil, drgerr.New(drgerr.InvalidArgument, "slice: unknown source representation")
	}
}

// DereferenceOffset turns a pointer value/reference into a reference to the
// pointed-to region, displaced by bitOffset bits and retyped to newQT.
func DereferenceOffset(ptr *Object, newQT dtype.QualifiedType, bitOffset int, bitFieldSize int) (*Object, error) {
	if ptr.Kind != KindUnsigned || dtype.Underlying(ptr.Type.Type).Kind() != dtype.KindPointer {
		return nil, drgerr.New(drgerr.Type, "dereference_offset requires a pointer object")
	}

	addr, err := ptr.ReadUnsigned()
	if err != nil {
		return nil, err
	}

	bits, err := effectiveBitSize(newQT, bitFieldSize)
	if err != nil {
		return nil, err
	}

	totalBit := int(bitOffset)
	dst := &Object{
		Program:      ptr.Program,
		Type:         newQT,
		Kind:         kindForType(newQT.Type),
		BitSize:      bits,
		repr:         reprReference,
		order:        ptr.order,
		address:      addr + uint64(totalBit/8),
		bitOffset:    totalBit % 8,
		bitFieldSize: bitFieldSize,
	}
	if dst.Kind == KindIncompleteValue {
		dst.Kind = KindIncompleteReference
	}
	return dst, nil
}

// AddressOf yields a pointer value to a reference object's target address.
// Fails for value objects: they have no target address.
func AddressOf(ref *Object, pointerQT dtype.QualifiedType) (*Object, error) {
	if ref.repr != reprReference {
		return nil, drgerr.New(drgerr.Type, "address_of requires a reference object")
	}
	if ref.bitOffset != 0 {
		return nil, drgerr.New(drgerr.InvalidArgument, "address_of requires a byte-aligned reference")
	}

	dst := &Object{Program: ref.Program}
	if err := dst.SetUnsigned(pointerQT, ref.address, 0); err != nil {
		return nil, err
	}
	return dst, nil
}
