package field

import (
	"math/big"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

// ToBytes encodes a into exactly width bytes, zero padded. A width of zero
// selects the field byte width.
func (f *Field) ToBytes(a Scalar, order Endianness, width int) ([]byte, error) {
	if width <= 0 {
		width = f.byteLen
	}
	raw := f.reduce(a.big()).v.Bytes()
	if len(raw) > width {
		return nil, reasoncodes.Newf(reasoncodes.EncodingOverflow, "", "value needs %d bytes, width is %d", len(raw), width)
	}
	out := make([]byte, width)
	copy(out[width-len(raw):], raw)
	if order == LittleEndian {
		reverse(out)
	}
	return out, nil
}

// FromBytes decodes a buffer of at most ByteLen bytes. Values at or above the
// modulus are reduced.
func (f *Field) FromBytes(b []byte, order Endianness) (Scalar, error) {
	if len(b) > f.byteLen {
		return Scalar{}, reasoncodes.Newf(reasoncodes.EncodingOverflow, "", "buffer of %d bytes exceeds field width %d", len(b), f.byteLen)
	}
	buf := append([]byte(nil), b...)
	if order == LittleEndian {
		reverse(buf)
	}
	return f.reduce(new(big.Int).SetBytes(buf)), nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
