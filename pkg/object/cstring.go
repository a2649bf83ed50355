package object

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

// ReadCString reads up to max bytes from a pointer or array-of-character
// object, stopping at a nul byte. The returned buffer is always
// nul-terminated. A fault partway through the read aborts with the
// underlying error.
func ReadCString(o *Object, max int) ([]byte, error) {
	u := dtype.Underlying(o.Type.Type)

	var elemQT dtype.QualifiedType
	var base *Object
	var err error

	switch u.Kind() {
	case dtype.KindPointer:
		elemQT, _, err = dtype.ElementInfo(o.Type.Type)
		if err != nil {
			return nil, err
		}
		base, err = DereferenceOffset(o, elemQT, 0, 0)
		if err != nil {
			return nil, err
		}
	case dtype.KindArray:
		elemQT = u.Type()
		base = o
	default:
		return nil, drgerr.New(drgerr.Type, "c-string read requires a pointer or array of character type")
	}

	if dtype.Underlying(elemQT.Type).Kind() != dtype.KindInt {
		return nil, drgerr.New(drgerr.Type, "c-string read requires a character element type")
	}

	out := make([]byte, 0, max+1)
	for i := 0; i < max; i++ {
		ch, err := Slice(base, elemQT, i*8, 0)
		if err != nil {
			return nil, err
		}
		raw, err := ch.ReadValue()
		if err != nil {
			return nil, err
		}
		b := byte(raw)
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	out = append(out, 0)
	return out, nil
}

var escapeTable = map[byte]string{
	'\a': `\a`,
	'\b': `\b`,
	'\t': `\t`,
	'\n': `\n`,
	'\v': `\v`,
	'\f': `\f`,
	'\r': `\r`,
	'"':  `\"`,
	'\\': `\\`,
}

// EscapeByteString renders raw bytes with C-string escape rules: the
// standard single-character escapes, and \xHH for other non-printable
// bytes.
func EscapeByteString(data []byte) string {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if esc, ok := escapeTable[b]; ok {
			out = append(out, esc...)
			continue
		}
		if b < 0x20 || b >= 0x7f {
			out = append(out, fmtHex(b)...)
			continue
		}
		out = append(out, b)
	}
	return string(out)
}

const hexDigits = "0123456789abcdef"

func fmtHex(b byte) string {
	return "\\x" + string([]byte{hexDigits[b>>4], hexDigits[b&0xf]})
}
