// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/vk/synthgraph/internal/rate"
)

// Decoder reads tagged values from an input stream, dispatching products to
// the readers of a Registry. The back-reference table is scoped to the
// Decoder.
type Decoder struct {
	r    *bufio.Reader
	off  int64
	reg  *Registry
	ns   string
	env  any
	refs []any
	buf  [8]byte
}

// NewDecoder returns a Decoder reading from r. Unless WithNamespace is given,
// the registry's namespace resolves short keys.
func NewDecoder(r io.Reader, reg *Registry, opts ...Option) *Decoder {
	o := buildOptions(opts)
	ns := reg.Namespace()
	if o.hasNamespace {
		ns = o.namespace
	}
	return &Decoder{
		r:   bufio.NewReader(r),
		reg: reg,
		ns:  ns,
		env: o.env,
	}
}

// Decode reads the next tagged value, whatever its cookie.
func (d *Decoder) Decode() (any, error) {
	return d.value()
}

// DecodeProduct reads the next value and requires it to be a product.
func (d *Decoder) DecodeProduct() (any, error) {
	start := d.off
	c, err := d.byte()
	if err != nil {
		return nil, err
	}
	switch c {
	case cookieProduct:
		return d.product()
	case cookieRef:
		return d.ref()
	}
	return nil, &DecodingError{Offset: start, Err: ErrBadCookie, Msg: fmt.Sprintf("expected product, got %q", c)}
}

func (d *Decoder) value() (any, error) {
	start := d.off
	c, err := d.byte()
	if err != nil {
		return nil, err
	}
	switch c {
	case cookieInt:
		v, err := d.uint32()
		return int32(v), err
	case cookieFloat:
		v, err := d.uint32()
		return math.Float32frombits(v), err
	case cookieDouble:
		v, err := d.uint64()
		return math.Float64frombits(v), err
	case cookieString:
		return d.utf()
	case cookieOption:
		present, err := d.flag()
		if err != nil || !present {
			return (*string)(nil), err
		}
		s, err := d.utf()
		if err != nil {
			return nil, err
		}
		return &s, nil
	case cookieBool:
		return d.flag()
	case cookieRate:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		r, err := rate.FromID(b)
		if err != nil {
			return nil, &DecodingError{Offset: start, Err: ErrBadValue, Msg: err.Error()}
		}
		return r, nil
	case cookieVector:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		if int32(n) < 0 {
			return nil, &DecodingError{Offset: start, Err: ErrBadValue, Msg: "negative vector length"}
		}
		out := make([]any, 0, min(int(n), 1024))
		for i := 0; i < int(n); i++ {
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case cookieProduct:
		return d.product()
	case cookieRef:
		return d.ref()
	}
	return nil, &DecodingError{Offset: start, Err: ErrBadCookie, Msg: fmt.Sprintf("cookie %q", c)}
}

func (d *Decoder) product() (any, error) {
	start := d.off
	key, err := d.utf()
	if err != nil {
		return nil, err
	}
	key, err = d.fullKey(start, key)
	if err != nil {
		return nil, err
	}
	n, err := d.uint16()
	if err != nil {
		return nil, err
	}
	arity := int(int16(n))

	rd, ok := d.reg.Lookup(key)
	if !ok {
		return nil, &DecodingError{Offset: start, Key: key, Err: ErrNoSuchReader}
	}
	if arity < 0 || (rd.Arity != AnyArity && rd.Arity != arity) {
		return nil, &DecodingError{Offset: start, Key: key, Err: ErrArity,
			Msg: fmt.Sprintf("reader expects %d fields, stream has %d", rd.Arity, arity)}
	}

	in := &ProductReader{d: d, key: key, arity: arity, remaining: arity}
	v, err := rd.Factory(in)
	if err == nil {
		err = in.err
	}
	if err != nil {
		var de *DecodingError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &DecodingError{Offset: start, Key: key, Err: ErrBadValue, Msg: err.Error()}
	}
	if in.remaining != 0 {
		return nil, &DecodingError{Offset: start, Key: key, Err: ErrArity,
			Msg: fmt.Sprintf("%d fields left unread", in.remaining)}
	}
	d.refs = append(d.refs, v)
	return v, nil
}

func (d *Decoder) ref() (any, error) {
	start := d.off
	v, err := d.uint32()
	if err != nil {
		return nil, err
	}
	id := int32(v)
	if id < 0 || int(id) >= len(d.refs) {
		return nil, &DecodingError{Offset: start, Err: ErrBadReference, Msg: fmt.Sprintf("id %d of %d", id, len(d.refs))}
	}
	return d.refs[id], nil
}

// fullKey qualifies a key read from the stream. A key the encoder would
// have shortened is rejected, so every accepted stream re-encodes to the
// same bytes.
func (d *Decoder) fullKey(start int64, key string) (string, error) {
	if d.ns == "" {
		return key, nil
	}
	if !strings.Contains(key, ".") {
		return d.ns + "." + key, nil
	}
	if rest, ok := strings.CutPrefix(key, d.ns+"."); ok && rest != "" && !strings.Contains(rest, ".") {
		return "", &DecodingError{Offset: start, Key: key, Err: ErrNonCanonicalKey,
			Msg: fmt.Sprintf("key in namespace %q must be written as %q", d.ns, rest)}
	}
	return key, nil
}

func (d *Decoder) byte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.eof(err)
	}
	d.off++
	return b, nil
}

func (d *Decoder) flag() (bool, error) {
	start := d.off
	b, err := d.byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, &DecodingError{Offset: start, Err: ErrBadValue, Msg: fmt.Sprintf("boolean byte %d", b)}
}

func (d *Decoder) read(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return nil, d.eof(err)
	}
	d.off += int64(n)
	return d.buf[:n], nil
}

func (d *Decoder) uint16() (uint16, error) {
	b, err := d.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) uint32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) uint64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *Decoder) utf() (string, error) {
	n, err := d.uint16()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", d.eof(err)
	}
	d.off += int64(n)
	return string(b), nil
}

func (d *Decoder) eof(err error) error {
	if errors.Is(err, io.EOF) && d.off > 0 {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) {
		return err
	}
	return &DecodingError{Offset: d.off, Err: err}
}
