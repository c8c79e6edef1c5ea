// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coap

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// OptionID identifies a CoAP option by its registered number.
type OptionID uint16

const (
	URIHost          OptionID = 3
	URIPort          OptionID = 7
	URIPath          OptionID = 11
	OptContentFormat OptionID = 12
	URIQuery         OptionID = 15
	Accept           OptionID = 17
)

// ValueKind is the wire shape of an option's value (spec.md §3).
type ValueKind uint8

const (
	KindEmptyValue ValueKind = iota
	KindOpaque
	KindUint
	KindString
)

// OptionDef is one Option Registry entry (spec.md §4.1).
type OptionDef struct {
	Name       string
	Kind       ValueKind
	MinLen     int
	MaxLen     int
	Repeatable bool
}

// OptionRegistry is the static option table this core recognizes. Any option
// number not present here is unknown (spec.md §4.1).
var OptionRegistry = map[OptionID]OptionDef{
	URIHost:          {Name: "Uri-Host", Kind: KindString, MinLen: 1, MaxLen: 255, Repeatable: false},
	URIPort:          {Name: "Uri-Port", Kind: KindUint, MinLen: 0, MaxLen: 2, Repeatable: false},
	URIPath:          {Name: "Uri-Path", Kind: KindString, MinLen: 0, MaxLen: 255, Repeatable: true},
	OptContentFormat: {Name: "Content-Format", Kind: KindUint, MinLen: 0, MaxLen: 2, Repeatable: false},
	URIQuery:         {Name: "Uri-Query", Kind: KindString, MinLen: 0, MaxLen: 255, Repeatable: true},
	Accept:           {Name: "Accept", Kind: KindUint, MinLen: 0, MaxLen: 2, Repeatable: false},
}

// IsCritical implements RFC 7252 §5.4.6: critical = number is odd.
func (o OptionID) IsCritical() bool {
	return o&1 != 0
}

// IsUnsafe implements RFC 7252 §5.4.6: unsafe = bit 1 of the number is set.
func (o OptionID) IsUnsafe() bool {
	return o&2 != 0
}

func (o OptionID) String() string {
	if def, ok := OptionRegistry[o]; ok {
		return def.Name
	}
	return fmt.Sprintf("Option(%d)", uint16(o))
}

// Option is a single typed option/value pair (spec.md §3).
type Option struct {
	Number OptionID
	Value  interface{} // nil, []byte, uint32 or string depending on the registry Kind
}

// Bytes renders the option value to its wire encoding.
func (o Option) Bytes() []byte {
	switch v := o.Value.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	case uint32:
		return encodeUint(v)
	default:
		panic(fmt.Errorf("coap: option %v has unsupported value type %T", o.Number, o.Value))
	}
}

// encodeUint implements the minimum-bytes big-endian rule of spec.md §4.1:
// 0 -> zero bytes, otherwise the smallest big-endian encoding.
func encodeUint(v uint32) []byte {
	switch {
	case v == 0:
		return nil
	case v < 1<<8:
		return []byte{byte(v)}
	case v < 1<<16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b
	case v < 1<<24:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b[1:]
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b
	}
}

// decodeUint is the inverse of encodeUint: big-endian, zero-padded on the left.
func decodeUint(b []byte) uint32 {
	var tmp [4]byte
	copy(tmp[4-len(b):], b)
	return binary.BigEndian.Uint32(tmp[:])
}

const (
	extendByteCode   = 13
	extendByteAddend = 13
	extendWordCode   = 14
	extendWordAddend = 269
	extendReserved   = 15
)

// extend computes the 4-bit nibble and extension value for a delta or
// length field, per spec.md §4.1.
func extend(v int) (nibble int, ext int) {
	switch {
	case v < extendByteAddend:
		return v, 0
	case v < extendWordAddend:
		return extendByteCode, v - extendByteAddend
	default:
		return extendWordCode, v - extendWordAddend
	}
}

// writeExtension appends the 0, 1 (value 13) or 2 (value 14, RFC-correct
// big-endian two-byte bias-269 form; spec.md §9.2) extension bytes.
func writeExtension(buf []byte, nibble, ext int) []byte {
	switch nibble {
	case extendByteCode:
		return append(buf, byte(ext))
	case extendWordCode:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(ext))
		return append(buf, tmp[:]...)
	default:
		return buf
	}
}

// parseExtension expands a 4-bit nibble into its real value, reading
// extension bytes from data as needed. Returns the real value and the
// number of extension bytes consumed.
func parseExtension(data []byte, nibble int) (value int, consumed int, err error) {
	switch nibble {
	case extendReserved:
		return 0, 0, ErrOptionNumberFifteen
	case extendByteCode:
		if len(data) < 1 {
			return 0, 0, ErrTooShort
		}
		return int(data[0]) + extendByteAddend, 1, nil
	case extendWordCode:
		if len(data) < 2 {
			return 0, 0, ErrTooShort
		}
		return int(binary.BigEndian.Uint16(data[:2])) + extendWordAddend, 2, nil
	default:
		return nibble, 0, nil
	}
}

// marshalOptions encodes opts (sorted, delta-compressed) onto the wire.
// opts must already be validated; marshalOptions stable-sorts a copy by
// option number before encoding, so the emitted deltas are never
// negative and the caller's slice is left untouched.
func marshalOptions(opts []Option) []byte {
	sorted := make([]Option, len(opts))
	copy(sorted, opts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	var buf []byte
	previous := OptionID(0)
	for _, o := range sorted {
		value := o.Bytes()
		delta := int(o.Number) - int(previous)
		previous = o.Number

		deltaNibble, deltaExt := extend(delta)
		lengthNibble, lengthExt := extend(len(value))

		buf = append(buf, byte(deltaNibble<<4)|byte(lengthNibble))
		buf = writeExtension(buf, deltaNibble, deltaExt)
		buf = writeExtension(buf, lengthNibble, lengthExt)
		buf = append(buf, value...)
	}
	return buf
}

// unmarshalOptions reads the option block out of data until it hits the
// 0xFF payload marker or runs out of bytes. It returns the parsed
// options, the number of bytes consumed, and whether a payload marker
// was seen (so the caller can distinguish "no payload" from "marker
// with empty payload" per spec.md §4.2 step 7).
func unmarshalOptions(data []byte) (opts []Option, consumed int, sawMarker bool, err error) {
	previous := OptionID(0)
	pos := 0
	seen := make(map[OptionID]bool)

	for pos < len(data) {
		if data[pos] == 0xFF {
			return opts, pos + 1, true, nil
		}

		header := data[pos]
		deltaNibble := int(header >> 4)
		lengthNibble := int(header & 0x0F)
		pos++

		delta, n, err := parseExtension(data[pos:], deltaNibble)
		if err != nil {
			return nil, 0, false, err
		}
		pos += n

		length, n, err := parseExtension(data[pos:], lengthNibble)
		if err != nil {
			return nil, 0, false, err
		}
		pos += n

		if len(data[pos:]) < length {
			return nil, 0, false, ErrTooShort
		}
		value := data[pos : pos+length]
		pos += length

		number := previous + OptionID(delta)
		previous = number

		def, known := OptionRegistry[number]
		if !known {
			if number.IsCritical() {
				return nil, 0, false, fmt.Errorf("%w: %d", ErrUnknownOption, number)
			}
			// Unknown elective option: ignore silently (RFC 7252 §5.4.1).
			continue
		}
		if length < def.MinLen || length > def.MaxLen {
			return nil, 0, false, fmt.Errorf("%w: option %d length %d", ErrOptionValueLength, number, length)
		}
		if !def.Repeatable && seen[number] {
			return nil, 0, false, fmt.Errorf("%w: option %d", ErrOptionNotRepeatable, number)
		}
		seen[number] = true

		opt := Option{Number: number}
		switch def.Kind {
		case KindEmptyValue:
			opt.Value = nil
		case KindOpaque:
			opt.Value = append([]byte(nil), value...)
		case KindUint:
			opt.Value = decodeUint(value)
		case KindString:
			opt.Value = string(value)
		}
		opts = append(opts, opt)
	}

	return opts, pos, false, nil
}
