// Package tvf implements the length-prefixed tagged-value framing (TVF)
// used as the wire primitive layer of the Lea transaction format: a
// 2-bit type tag identifies a signed varint, an unsigned varint, or a
// length-prefixed byte vector (spec.md §4.1).
package tvf

import (
	"math/big"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// Kind identifies which of the three TVF primitives a header byte encodes.
type Kind int

const (
	KindSleb Kind = iota
	KindUleb
	KindVector
)

const (
	tagSleb   = 0x00
	tagUleb   = 0x01
	tagVector = 0x02 // low bits of a small-vector header; see headerByte
	tagLarge  = 0x03

	maxSmallVectorLen = 63
	maxLargeVectorLen = 1 << 20
)

func headerByte(b byte) byte { return b & 0x03 }

// AppendUleb appends the ULEB128 encoding of a non-negative arbitrary
// precision integer, arranged seven bits per byte, little-endian, with
// the high bit of each byte signalling continuation.
func AppendUleb(n *big.Int) []byte {
	if n.Sign() < 0 {
		panic("tvf: AppendUleb called with negative value")
	}
	v := new(big.Int).Set(n)
	seven := big.NewInt(0x7f)
	var out []byte
	for {
		group := new(big.Int).And(v, seven)
		v.Rsh(v, 7)
		b := byte(group.Uint64())
		if v.Sign() != 0 {
			b |= 0x80
			out = append(out, b)
			continue
		}
		out = append(out, b)
		break
	}
	return out
}

// AppendSleb appends the SLEB128 encoding of an arbitrary precision
// signed integer. Negative values are represented with infinite
// two's-complement semantics, matching math/big's bitwise operators.
func AppendSleb(n *big.Int) []byte {
	v := new(big.Int).Set(n)
	neg1 := big.NewInt(-1)
	var out []byte
	for {
		group := new(big.Int).And(v, big.NewInt(0x7f))
		b := byte(group.Uint64())
		v.Rsh(v, 7)
		signBitSet := b&0x40 != 0
		done := (v.Sign() == 0 && !signBitSet) || (v.Cmp(neg1) == 0 && signBitSet)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			break
		}
	}
	return out
}

// DecodeUleb decodes one ULEB128 value from the front of buf, rejecting
// overlong (non-canonical) encodings. Returns the value and bytes consumed.
func DecodeUleb(buf []byte) (*big.Int, int, error) {
	result := new(big.Int)
	shift := uint(0)
	i := 0
	for {
		if i >= len(buf) {
			return nil, 0, ltmerr.New(ltmerr.CodeTruncated, "uleb128: unexpected EOF")
		}
		b := buf[i]
		i++
		group := new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift)
		result.Or(result, group)
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if reenc := AppendUleb(result); len(reenc) != i {
		return nil, 0, ltmerr.New(ltmerr.CodeOverlong, "uleb128: overlong encoding")
	}
	return result, i, nil
}

// DecodeSleb decodes one SLEB128 value from the front of buf, sign
// extending from the bit just past the last consumed group and
// rejecting overlong encodings.
func DecodeSleb(buf []byte) (*big.Int, int, error) {
	result := new(big.Int)
	shift := uint(0)
	i := 0
	var last byte
	for {
		if i >= len(buf) {
			return nil, 0, ltmerr.New(ltmerr.CodeTruncated, "sleb128: unexpected EOF")
		}
		last = buf[i]
		i++
		group := new(big.Int).Lsh(big.NewInt(int64(last&0x7f)), shift)
		result.Or(result, group)
		shift += 7
		if last&0x80 == 0 {
			break
		}
	}
	if last&0x40 != 0 {
		signExt := new(big.Int).Lsh(big.NewInt(-1), shift)
		result.Or(result, signExt)
	}
	if reenc := AppendSleb(result); len(reenc) != i {
		return nil, 0, ltmerr.New(ltmerr.CodeOverlong, "sleb128: overlong encoding")
	}
	return result, i, nil
}

// Encoder accumulates TVF chunks for later concatenation. Chunks are
// append-only; Build() is the only point at which they are joined.
type Encoder struct {
	chunks [][]byte
}

// NewEncoder returns an empty streaming encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// AddUleb frames n as an unsigned varint item.
func (e *Encoder) AddUleb(n *big.Int) {
	e.chunks = append(e.chunks, append([]byte{tagUleb}, AppendUleb(n)...))
}

// AddUlebUint64 is a convenience wrapper over AddUleb for uint64 values.
func (e *Encoder) AddUlebUint64(n uint64) {
	e.AddUleb(new(big.Int).SetUint64(n))
}

// AddSleb frames n as a signed varint item.
func (e *Encoder) AddSleb(n *big.Int) {
	e.chunks = append(e.chunks, append([]byte{tagSleb}, AppendSleb(n)...))
}

// AddSlebInt64 is a convenience wrapper over AddSleb for int64 values.
func (e *Encoder) AddSlebInt64(n int64) {
	e.AddSleb(big.NewInt(n))
}

// AddVector frames b as a length-prefixed vector item, choosing the
// small or large vector form depending on len(b).
func (e *Encoder) AddVector(b []byte) error {
	if len(b) <= maxSmallVectorLen {
		hdr := byte(len(b)<<2) | tagVector
		chunk := make([]byte, 0, 1+len(b))
		chunk = append(chunk, hdr)
		chunk = append(chunk, b...)
		e.chunks = append(e.chunks, chunk)
		return nil
	}
	if len(b) > maxLargeVectorLen {
		return ltmerr.Newf(ltmerr.CodeSizeExceeded, "vector length %d exceeds %d", len(b), maxLargeVectorLen)
	}
	chunk := []byte{tagLarge}
	chunk = append(chunk, AppendUleb(big.NewInt(int64(len(b))))...)
	chunk = append(chunk, b...)
	e.chunks = append(e.chunks, chunk)
	return nil
}

// AddRaw injects bytes verbatim with no framing header. The caller is
// responsible for ensuring raw is itself valid TVF — this is used
// exclusively for the INLINE pseudo-instruction (spec.md §4.5).
func (e *Encoder) AddRaw(raw []byte) {
	e.chunks = append(e.chunks, raw)
}

// Build concatenates all accumulated chunks into a single buffer.
func (e *Encoder) Build() []byte {
	total := 0
	for _, c := range e.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range e.chunks {
		out = append(out, c...)
	}
	return out
}

// Decoder is a cursor over a borrowed TVF buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a cursor positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// HasNext reports whether any bytes remain to be read.
func (d *Decoder) HasNext() bool { return d.pos < len(d.buf) }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Pos returns the current cursor offset into the borrowed buffer.
func (d *Decoder) Pos() int { return d.pos }

// PeekType inspects the next header byte without consuming it.
func (d *Decoder) PeekType() (Kind, error) {
	if !d.HasNext() {
		return 0, ltmerr.New(ltmerr.CodeTruncated, "tvf: no more items")
	}
	hdr := d.buf[d.pos]
	switch headerByte(hdr) {
	case tagSleb:
		if hdr != tagSleb {
			return 0, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: malformed sleb header")
		}
		return KindSleb, nil
	case tagUleb:
		if hdr != tagUleb {
			return 0, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: malformed uleb header")
		}
		return KindUleb, nil
	case tagVector:
		return KindVector, nil
	case tagLarge:
		if hdr != tagLarge {
			return 0, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: malformed large-vector header")
		}
		return KindVector, nil
	}
	return 0, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: invalid header tag")
}

// ReadUleb consumes one unsigned varint item.
func (d *Decoder) ReadUleb() (*big.Int, error) {
	if kind, err := d.PeekType(); err != nil {
		return nil, err
	} else if kind != KindUleb {
		return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: expected uleb item")
	}
	d.pos++
	v, n, err := DecodeUleb(d.buf[d.pos:])
	if err != nil {
		return nil, err
	}
	d.pos += n
	return v, nil
}

// ReadUlebUint64 consumes one unsigned varint item and requires it to
// fit in a uint64.
func (d *Decoder) ReadUlebUint64() (uint64, error) {
	v, err := d.ReadUleb()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ltmerr.New(ltmerr.CodeSizeExceeded, "tvf: uleb value exceeds uint64 range")
	}
	return v.Uint64(), nil
}

// ReadSleb consumes one signed varint item.
func (d *Decoder) ReadSleb() (*big.Int, error) {
	if kind, err := d.PeekType(); err != nil {
		return nil, err
	} else if kind != KindSleb {
		return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: expected sleb item")
	}
	d.pos++
	v, n, err := DecodeSleb(d.buf[d.pos:])
	if err != nil {
		return nil, err
	}
	d.pos += n
	return v, nil
}

// ReadVector consumes one vector item, rejecting declared large-vector
// lengths over 2^20 before any allocation.
func (d *Decoder) ReadVector() ([]byte, error) {
	if !d.HasNext() {
		return nil, ltmerr.New(ltmerr.CodeTruncated, "tvf: no more items")
	}
	hdr := d.buf[d.pos]
	switch headerByte(hdr) {
	case tagVector:
		n := int(hdr >> 2)
		d.pos++
		if d.Remaining() < n {
			return nil, ltmerr.New(ltmerr.CodeTruncated, "tvf: truncated small vector")
		}
		out := make([]byte, n)
		copy(out, d.buf[d.pos:d.pos+n])
		d.pos += n
		return out, nil
	case tagLarge:
		if hdr != tagLarge {
			return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: malformed large-vector header")
		}
		d.pos++
		ln, used, err := DecodeUleb(d.buf[d.pos:])
		if err != nil {
			return nil, err
		}
		d.pos += used
		if !ln.IsUint64() || ln.Uint64() > maxLargeVectorLen {
			return nil, ltmerr.New(ltmerr.CodeSizeExceeded, "tvf: vector length exceeds 2^20")
		}
		n := int(ln.Uint64())
		if d.Remaining() < n {
			return nil, ltmerr.New(ltmerr.CodeTruncated, "tvf: truncated large vector")
		}
		out := make([]byte, n)
		copy(out, d.buf[d.pos:d.pos+n])
		d.pos += n
		return out, nil
	}
	return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "tvf: expected vector item")
}
