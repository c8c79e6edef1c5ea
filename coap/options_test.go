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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want int
	}{
		{"zero", 0, 0},
		{"one-byte", 200, 1},
		{"two-byte", 1000, 2},
		{"three-byte", 1 << 20, 3},
		{"four-byte", 1 << 28, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := encodeUint(tt.in)
			require.Len(t, enc, tt.want)
			require.Equal(t, tt.in, decodeUint(enc))
		})
	}
}

func TestMarshalUnmarshalOptionsRoundTrip(t *testing.T) {
	opts := []Option{
		{Number: OptContentFormat, Value: uint32(0)},
		{Number: URIPath, Value: "hi"},
		{Number: URIQuery, Value: "a=1"},
	}
	wire := marshalOptions(opts)

	got, consumed, sawMarker, err := unmarshalOptions(wire)
	require.NoError(t, err)
	require.False(t, sawMarker)
	require.Equal(t, len(wire), consumed)
	require.Len(t, got, 3)

	byNumber := make(map[OptionID]Option)
	for _, o := range got {
		byNumber[o.Number] = o
	}
	require.Equal(t, "hi", byNumber[URIPath].Value)
	require.Equal(t, "a=1", byNumber[URIQuery].Value)
	require.Equal(t, uint32(0), byNumber[OptContentFormat].Value)
}

func TestUnmarshalOptionsPayloadMarker(t *testing.T) {
	data := []byte{0xFF}
	opts, consumed, sawMarker, err := unmarshalOptions(data)
	require.NoError(t, err)
	require.True(t, sawMarker)
	require.Equal(t, 1, consumed)
	require.Empty(t, opts)
}

func TestUnmarshalOptionsUnknownCriticalRejected(t *testing.T) {
	// Option number 9 is odd (critical) and absent from the registry.
	data := []byte{0x90} // delta=9, length=0
	_, _, _, err := unmarshalOptions(data)
	require.ErrorIs(t, err, ErrUnknownOption)
}

func TestUnmarshalOptionsUnknownElectiveIgnored(t *testing.T) {
	// Option number 2 is even (elective) and absent from the registry.
	data := []byte{0x20} // delta=2, length=0
	opts, consumed, sawMarker, err := unmarshalOptions(data)
	require.NoError(t, err)
	require.False(t, sawMarker)
	require.Equal(t, 1, consumed)
	require.Empty(t, opts)
}

func TestUnmarshalOptionsRejectsRepeatedNonRepeatable(t *testing.T) {
	opts := []Option{
		{Number: OptContentFormat, Value: uint32(0)},
		{Number: OptContentFormat, Value: uint32(1)},
	}
	wire := marshalOptions(opts)
	_, _, _, err := unmarshalOptions(wire)
	require.ErrorIs(t, err, ErrOptionNotRepeatable)
}

func TestUnmarshalOptionsRepeatableAllowed(t *testing.T) {
	opts := []Option{
		{Number: URIPath, Value: "a"},
		{Number: URIPath, Value: "b"},
	}
	wire := marshalOptions(opts)
	got, _, _, err := unmarshalOptions(wire)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestOptionIDCriticalUnsafe(t *testing.T) {
	require.True(t, URIPath.IsCritical())           // 11 is odd
	require.False(t, OptContentFormat.IsCritical()) // 12 is even
	require.True(t, OptionID(9).IsCritical())
	require.False(t, OptionID(8).IsCritical())
	require.True(t, OptionID(2).IsUnsafe())
	require.False(t, OptionID(1).IsUnsafe())
}

func TestOptionBytesPanicsOnUnsupportedType(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
	}()
	o := Option{Number: URIPath, Value: 3.14}
	_ = o.Bytes()
}

func TestWordExtensionUsesTwoBytes(t *testing.T) {
	// A delta of 269 must extend as nibble 14 with a 2-byte big-endian
	// extension of 0, not a single byte (spec.md §9.2).
	nibble, ext := extend(269)
	require.Equal(t, extendWordCode, nibble)
	require.Equal(t, 0, ext)

	buf := writeExtension(nil, nibble, ext)
	require.Len(t, buf, 2)

	value, consumed, err := parseExtension(buf, extendWordCode)
	require.NoError(t, err)
	require.Equal(t, 2, consumed)
	require.Equal(t, 269, value)
}

func TestParseExtensionReservedNibble(t *testing.T) {
	_, _, err := parseExtension(nil, extendReserved)
	require.True(t, errors.Is(err, ErrOptionNumberFifteen))
}
