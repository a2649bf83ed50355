package object

import (
	"encoding/binary"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

func isScalar(t *dtype.Type) bool {
	switch dtype.Underlying(t).Kind() {
	case dtype.KindInt, dtype.KindBool, dtype.KindFloat, dtype.KindEnum, dtype.KindPointer:
		return true
	default:
		return false
	}
}

// Cast converts a scalar source object to a scalar destination type,
// following C conversion semantics: numeric narrowing truncates,
// integer<->float follows C rules, and pointer<->integer preserves the bit
// pattern at the target's pointer width.
func Cast(newQT dtype.QualifiedType, src *Object) (*Object, error) {
	srcU := dtype.Underlying(src.Type.Type)
	dstU := dtype.Underlying(newQT.Type)

	if !isScalar(srcU) || !isScalar(dstU) {
		return nil, drgerr.New(drgerr.Type, "cast requires scalar source and destination types")
	}

	dst := &Object{Program: src.Program}

	switch dstU.Kind() {
	case dtype.KindFloat:
		var f float64
		switch src.Kind {
		case KindSigned:
			v, err := src.ReadSigned()
			if err != nil {
				return nil, err
			}
			f = float64(v)
		case KindUnsigned:
			v, err := src.ReadUnsigned()
			if err != nil {
				return nil, err
			}
			f = float64(v)
		case KindFloat:
			v, err := src.ReadFloat()
			if err != nil {
				return nil, err
			}
			f = v
		default:
			return nil, drgerr.New(drgerr.Type, "cast to float requires a numeric source")
		}
		if err := dst.SetFloat(newQT, f); err != nil {
			return nil, err
		}
		return dst, nil

	case dtype.KindInt, dtype.KindBool, dtype.KindEnum:
		var bits uint64
		switch src.Kind {
		case KindSigned:
			v, err := src.ReadSigned()
			if err != nil {
				return nil, err
			}
			bits = uint64(v)
		case KindUnsigned:
			v, err := src.ReadUnsigned()
			if err != nil {
				return nil, err
			}
			bits = v
		case KindFloat:
			v, err := src.ReadFloat()
			if err != nil {
				return nil, err
			}
			if dstU.Kind() == dtype.KindInt && dstU.IsSigned() {
				bits = uint64(int64(v))
			} else {
				bits = uint64(v)
			}
		default:
			return nil, drgerr.New(drgerr.Type, "cast to integer requires a numeric source")
		}

		if (dstU.Kind() == dtype.KindInt && dstU.IsSigned()) || (dstU.Kind() == dtype.KindEnum && dstU.IsSigned()) {
			if err := dst.SetSigned(newQT, int64(bits), 0); err != nil {
				return nil, err
			}
		} else {
			if err := dst.SetUnsigned(newQT, bits, 0); err != nil {
				return nil, err
			}
		}
		return dst, nil

	case dtype.KindPointer:
		var bits uint64
		switch src.Kind {
		case KindSigned:
			v, err := src.ReadSigned()
			if err != nil {
				return nil, err
			}
			bits = uint64(v)
		case KindUnsigned:
			v, err := src.ReadUnsigned()
			if err != nil {
				return nil, err
			}
			bits = v
		default:
			return nil, drgerr.New(drgerr.Type, "cast to pointer requires an integer or pointer source")
		}
		if err := dst.SetUnsigned(newQT, bits, 0); err != nil {
			return nil, err
		}
		return dst, nil

	default:
		return nil, drgerr.New(drgerr.Type, "cast to unsupported destination kind %v", dstU.Kind())
	}
}

// Reinterpret reinterprets src's raw bytes as newQT under the given
// endianness, preserving reference-ness. Forbidden for scalar values, which
// have no known byte layout to reinterpret; permitted for buffer values and
// all references.
func Reinterpret(newQT dtype.QualifiedType, order binary.ByteOrder, src *Object) (*Object, error) {
	if src.repr == reprValue && src.Kind != KindBuffer && src.Kind != KindIncompleteValue {
		return nil, drgerr.New(drgerr.Type, "reinterpret is forbidden on scalar values")
	}

	bits, err := effectiveBitSize(newQT, 0)
	if err != nil {
		return nil, err
	}

	if src.repr == reprReference {
		dst := &Object{
			Program: src.Program,
			Type:    newQT,
			Kind:    kindForType(newQT.Type),
			BitSize: bits,
			repr:    reprReference,
			order:   order,
			address: src.address,
		}
		if dst.Kind == KindIncompleteValue {
			dst.Kind = KindIncompleteReference
		}
		return dst, nil
	}

	raw, err := src.materialize()
	if err != nil {
		return nil, err
	}

	dst := &Object{Program: src.Program, Type: newQT, Kind: kindForType(newQT.Type), BitSize: bits, repr: reprValue, order: order}
	if bits <= 64 {
		dst.inline = raw
		dst.inlineValid = true
	} else {
		dst.buf = src.buf
	}
	return dst, nil
}
