package micropb

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

// Decoder reads protobuf wire values from a Reader and counts the bytes it
// consumes. A Decoder is not safe for concurrent use.
type Decoder struct {
	r     Reader
	exact ExactReader
	read  int

	// IgnoreRepeatedCapErr drops elements that do not fit into a fixed
	// repeated or map container instead of failing. Strings and bytes still
	// fail with ErrCapacity.
	IgnoreRepeatedCapErr bool
	// Registry receives fields of extendable messages that match no declared
	// field. It may be nil.
	Registry ExtensionRegistry
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r Reader) *Decoder {
	d := &Decoder{r: r}
	if er, ok := r.(ExactReader); ok {
		d.exact = er
	}
	return d
}

// BytesRead returns the number of bytes consumed so far.
func (d *Decoder) BytesRead() int {
	return d.read
}

func (d *Decoder) chunk() ([]byte, error) {
	b, err := d.r.ReadChunk()
	if err != nil {
		return nil, readerErr(err)
	}
	return b, nil
}

func (d *Decoder) advance(n int) {
	d.r.Advance(n)
	d.read += n
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.chunk()
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, ErrUnexpectedEOF
	}
	c := b[0]
	d.advance(1)
	return c, nil
}

// readFull fills p, crossing chunk boundaries as needed.
func (d *Decoder) readFull(p []byte) error {
	if d.exact != nil {
		n, err := d.exact.ReadExact(p)
		d.read += n
		if err != nil {
			if errors.Is(err, ErrUnexpectedEOF) {
				return ErrUnexpectedEOF
			}
			return readerErr(err)
		}
		return nil
	}
	for len(p) > 0 {
		b, err := d.chunk()
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return ErrUnexpectedEOF
		}
		n := copy(p, b)
		d.advance(n)
		p = p[n:]
	}
	return nil
}

// skip consumes n bytes.
func (d *Decoder) skip(n int) error {
	for n > 0 {
		b, err := d.chunk()
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return ErrUnexpectedEOF
		}
		k := min(n, len(b))
		d.advance(k)
		n -= k
	}
	return nil
}

// DecodeVarint64 reads a varint of up to 10 bytes.
func (d *Decoder) DecodeVarint64() (uint64, error) {
	b, err := d.chunk()
	if err != nil {
		return 0, err
	}
	// fast path: the whole varint sits in the current chunk
	var v uint64
	for i := 0; i < len(b) && i < MaxVarintLen; i++ {
		c := b[i]
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			d.advance(i + 1)
			return v, nil
		}
	}
	if len(b) >= MaxVarintLen {
		d.advance(MaxVarintLen)
		return 0, ErrVarIntLimit
	}
	v = 0
	for i := 0; i < MaxVarintLen; i++ {
		c, err := d.readByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, nil
		}
	}
	return 0, ErrVarIntLimit
}

// DecodeVarint32 reads a varint into 32 bits. Up to 10 bytes are accepted;
// bits past the fifth byte are dropped.
func (d *Decoder) DecodeVarint32() (uint32, error) {
	var v uint32
	for i := 0; i < MaxVarintLen; i++ {
		c, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if i < MaxSizeVarint32 {
			v |= uint32(c&0x7f) << (7 * i)
		}
		if c < 0x80 {
			return v, nil
		}
	}
	return 0, ErrVarIntLimit
}

// DecodeTag reads a field tag.
func (d *Decoder) DecodeTag() (Tag, error) {
	v, err := d.DecodeVarint32()
	return Tag(v), err
}

func (d *Decoder) DecodeInt32() (int32, error) {
	v, err := d.DecodeVarint32()
	return int32(v), err
}

func (d *Decoder) DecodeInt64() (int64, error) {
	v, err := d.DecodeVarint64()
	return int64(v), err
}

func (d *Decoder) DecodeUint32() (uint32, error) {
	return d.DecodeVarint32()
}

func (d *Decoder) DecodeUint64() (uint64, error) {
	return d.DecodeVarint64()
}

func (d *Decoder) DecodeSint32() (int32, error) {
	v, err := d.DecodeVarint32()
	return DecodeZigZag32(v), err
}

func (d *Decoder) DecodeSint64() (int64, error) {
	v, err := d.DecodeVarint64()
	return DecodeZigZag64(v), err
}

func (d *Decoder) DecodeBool() (bool, error) {
	v, err := d.DecodeVarint64()
	return v != 0, err
}

func (d *Decoder) DecodeFixed32() (uint32, error) {
	var buf [SizeFixed32]byte
	if err := d.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *Decoder) DecodeFixed64() (uint64, error) {
	var buf [SizeFixed64]byte
	if err := d.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (d *Decoder) DecodeSfixed32() (int32, error) {
	v, err := d.DecodeFixed32()
	return int32(v), err
}

func (d *Decoder) DecodeSfixed64() (int64, error) {
	v, err := d.DecodeFixed64()
	return int64(v), err
}

func (d *Decoder) DecodeFloat() (float32, error) {
	v, err := d.DecodeFixed32()
	return math.Float32frombits(v), err
}

func (d *Decoder) DecodeDouble() (float64, error) {
	v, err := d.DecodeFixed64()
	return math.Float64frombits(v), err
}

// decodeLen reads a length prefix. Prefixes above math.MaxInt32 are
// rejected so the value fits an int on every target.
func (d *Decoder) decodeLen() (int, error) {
	n, err := d.DecodeVarint64()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, ErrWrongLen
	}
	return int(n), nil
}

// byteBuf is the part of Text and Seq[byte] record decoding fills.
type byteBuf interface {
	Reserve(n int)
	Spare() []byte
	SetLen(n int)
	Len() int
}

// reserveStep bounds the first reservation for a record. Later ones double
// with the bytes actually read, so a forged prefix costs at most twice the
// input it comes with.
const reserveStep = 4096

// readRecord appends n bytes from the input to dst.
func (d *Decoder) readRecord(dst byteBuf, n int) error {
	if c, ok := dst.(interface{ Cap() int }); ok && c.Cap()-dst.Len() < n {
		return ErrCapacity
	}
	for filled := 0; filled < n; {
		dst.Reserve(min(n-filled, max(filled, reserveStep)))
		spare := dst.Spare()
		if len(spare) == 0 {
			return ErrCapacity
		}
		k := min(len(spare), n-filled)
		if err := d.readFull(spare[:k]); err != nil {
			return err
		}
		dst.SetLen(dst.Len() + k)
		filled += k
	}
	return nil
}

// DecodeLenRecord reads a length prefix and runs fn over the record. The
// record must consume exactly the prefixed number of bytes, otherwise
// ErrWrongLen is returned.
func (d *Decoder) DecodeLenRecord(fn func(length int) error) error {
	length, err := d.decodeLen()
	if err != nil {
		return err
	}
	start := d.read
	if err := fn(length); err != nil {
		return err
	}
	if d.read-start != length {
		return ErrWrongLen
	}
	return nil
}

// DecodeString reads a length-delimited UTF-8 string into dst. Invalid UTF-8
// leaves dst empty and fails with ErrUtf8.
func (d *Decoder) DecodeString(dst Text) error {
	n, err := d.decodeLen()
	if err != nil {
		return err
	}
	dst.Clear()
	if err := d.readRecord(dst, n); err != nil {
		dst.Clear()
		return err
	}
	if !utf8.Valid(dst.Bytes()) {
		dst.Clear()
		return ErrUtf8
	}
	return nil
}

// DecodeBytes reads a length-delimited byte string into dst.
func (d *Decoder) DecodeBytes(dst Seq[byte]) error {
	n, err := d.decodeLen()
	if err != nil {
		return err
	}
	dst.Clear()
	if err := d.readRecord(dst, n); err != nil {
		dst.Clear()
		return err
	}
	return nil
}

// DecodeBorrowed points dst at the record bytes inside the current chunk.
// The whole record must sit in one chunk; otherwise ErrCapacity is returned.
// With utf8Check set, invalid UTF-8 fails with ErrUtf8 and leaves dst empty.
func (d *Decoder) DecodeBorrowed(dst Borrowed, utf8Check bool) error {
	n, err := d.decodeLen()
	if err != nil {
		return err
	}
	b, err := d.chunk()
	if err != nil {
		return err
	}
	if len(b) < n {
		if len(b) == 0 {
			return ErrUnexpectedEOF
		}
		return ErrCapacity
	}
	b = b[:n:n]
	if utf8Check && !utf8.Valid(b) {
		dst.Borrow(nil)
		d.advance(n)
		return ErrUtf8
	}
	dst.Borrow(b)
	d.advance(n)
	return nil
}

// DecodeNested reads a length-delimited sub-message into m.
func (d *Decoder) DecodeNested(m MessageDecode) error {
	return d.DecodeLenRecord(func(length int) error {
		return m.DecodeMessage(d, length)
	})
}

// DecodeFields is the message decode driver. It reads tags until length
// bytes are consumed and hands each one to fn. A negative length reads until
// the end of input. When fn reports the tag as not handled, the value is
// skipped according to its wire type.
func (d *Decoder) DecodeFields(length int, fn func(tag Tag) (bool, error)) error {
	start := d.read
	for length < 0 || d.read-start < length {
		if length < 0 {
			b, err := d.chunk()
			if err != nil {
				return err
			}
			if len(b) == 0 {
				return nil
			}
		}
		tag, err := d.DecodeTag()
		if err != nil {
			return err
		}
		if tag.FieldNum() == 0 {
			return ErrZeroField
		}
		handled, err := fn(tag)
		if err != nil {
			return err
		}
		if !handled {
			if err := d.SkipWireValue(tag.WireType()); err != nil {
				return err
			}
		}
	}
	if d.read-start != length {
		return ErrWrongLen
	}
	return nil
}

// SkipWireValue consumes one value of the given wire type.
func (d *Decoder) SkipWireValue(wt WireType) error {
	switch wt {
	case WireVarint:
		for i := 0; i < MaxVarintLen; i++ {
			c, err := d.readByte()
			if err != nil {
				return err
			}
			if c < 0x80 {
				return nil
			}
		}
		return ErrVarIntLimit
	case WireI64:
		return d.skip(SizeFixed64)
	case WireI32:
		return d.skip(SizeFixed32)
	case WireLen:
		n, err := d.decodeLen()
		if err != nil {
			return err
		}
		return d.skip(n)
	case WireStartGroup, WireEndGroup:
		return ErrDeprecation
	default:
		return ErrUnknownWireType
	}
}

func pushElem[T any](d *Decoder, dst Seq[T], v T) error {
	if err := dst.Push(v); err != nil {
		if d.IgnoreRepeatedCapErr && errors.Is(err, ErrCapacity) {
			return nil
		}
		return err
	}
	return nil
}

// DecodeRepeated reads one unpacked element and appends it to dst.
func DecodeRepeated[T any](d *Decoder, dst Seq[T], decode func(*Decoder) (T, error)) error {
	v, err := decode(d)
	if err != nil {
		return err
	}
	return pushElem(d, dst, v)
}

// DecodePacked reads a packed block of elements and appends them to dst.
func DecodePacked[T any](d *Decoder, dst Seq[T], decode func(*Decoder) (T, error)) error {
	return d.DecodeLenRecord(func(length int) error {
		start := d.read
		for d.read-start < length {
			v, err := decode(d)
			if err != nil {
				return err
			}
			if err := pushElem(d, dst, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// DecodeMapEntry reads one map entry record and inserts it into dst. key
// and val hold the values used when the entry omits either side. Fields
// other than 1 and 2 are skipped.
func DecodeMapEntry[K comparable, V any](
	d *Decoder,
	dst Map[K, V],
	key K,
	val V,
	decodeKey func(*Decoder, *K) error,
	decodeVal func(*Decoder, *V) error,
) error {
	err := d.DecodeLenRecord(func(length int) error {
		return d.DecodeFields(length, func(tag Tag) (bool, error) {
			switch tag.FieldNum() {
			case 1:
				return true, decodeKey(d, &key)
			case 2:
				return true, decodeVal(d, &val)
			}
			return false, nil
		})
	})
	if err != nil {
		return err
	}
	if err := dst.Insert(key, val); err != nil {
		if d.IgnoreRepeatedCapErr && errors.Is(err, ErrCapacity) {
			return nil
		}
		return err
	}
	return nil
}

// The Map* functions adapt the scalar decoders to the in-place shape
// DecodeMapEntry expects.

func MapInt32(d *Decoder, p *int32) (err error) {
	*p, err = d.DecodeInt32()
	return err
}

func MapInt64(d *Decoder, p *int64) (err error) {
	*p, err = d.DecodeInt64()
	return err
}

func MapUint32(d *Decoder, p *uint32) (err error) {
	*p, err = d.DecodeUint32()
	return err
}

func MapUint64(d *Decoder, p *uint64) (err error) {
	*p, err = d.DecodeUint64()
	return err
}

func MapSint32(d *Decoder, p *int32) (err error) {
	*p, err = d.DecodeSint32()
	return err
}

func MapSint64(d *Decoder, p *int64) (err error) {
	*p, err = d.DecodeSint64()
	return err
}

func MapFixed32(d *Decoder, p *uint32) (err error) {
	*p, err = d.DecodeFixed32()
	return err
}

func MapFixed64(d *Decoder, p *uint64) (err error) {
	*p, err = d.DecodeFixed64()
	return err
}

func MapSfixed32(d *Decoder, p *int32) (err error) {
	*p, err = d.DecodeSfixed32()
	return err
}

func MapSfixed64(d *Decoder, p *int64) (err error) {
	*p, err = d.DecodeSfixed64()
	return err
}

func MapBool(d *Decoder, p *bool) (err error) {
	*p, err = d.DecodeBool()
	return err
}

func MapFloat(d *Decoder, p *float32) (err error) {
	*p, err = d.DecodeFloat()
	return err
}

func MapDouble(d *Decoder, p *float64) (err error) {
	*p, err = d.DecodeDouble()
	return err
}

func MapString(d *Decoder, p *string) error {
	return d.DecodeString(StringOf(p))
}

func MapBytes(d *Decoder, p *[]byte) error {
	return d.DecodeBytes(BytesOf(p))
}

// DecodeRepeatedWith reads one element in place through decode and appends
// it to dst. It serves elements that are not plain scalars: strings, bytes
// and messages.
func DecodeRepeatedWith[T any](d *Decoder, dst Seq[T], decode func(*T) error) error {
	var v T
	if err := decode(&v); err != nil {
		return err
	}
	return pushElem(d, dst, v)
}

// NarrowDecode converts a scalar decoder to a narrower integer or enum type.
// Upper bits are dropped.
func NarrowDecode[T, W Integer](decode func(*Decoder) (W, error)) func(*Decoder) (T, error) {
	return func(d *Decoder) (T, error) {
		v, err := decode(d)
		return T(v), err
	}
}

// MapWith adapts a scalar decoder to the in-place shape of DecodeMapEntry.
func MapWith[T any](decode func(*Decoder) (T, error)) func(*Decoder, *T) error {
	return func(d *Decoder, p *T) (err error) {
		*p, err = decode(d)
		return err
	}
}

// MapMessage decodes a message map value in place.
func MapMessage[T any, P interface {
	*T
	MessageDecode
}](d *Decoder, p *T) error {
	return d.DecodeNested(P(p))
}
