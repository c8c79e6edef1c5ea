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
	"encoding/json"
	"fmt"
)

// Kind distinguishes the three message shapes spec.md §3 names.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindRequest
	KindResponse
)

// Message is the single tagged variant covering Empty, Request and
// Response (spec.md §9's architectural note: one exhaustive sum type
// rather than three unrelated record types).
type Message struct {
	Kind      Kind
	Ver       uint8
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

// MaxTokenLength is the RFC 7252 token-length ceiling enforced at
// dispatch time, not at parse time (spec.md §3: this core accepts any
// header-permitted length 0-15 on input).
const MaxTokenLength = 8

// Deserialize parses a raw UDP datagram into an Empty or Request
// Message, per spec.md §4.2.
func Deserialize(data []byte) (Message, error) {
	if len(data) < 4 {
		return Message{}, ErrTooShort
	}

	ver := data[0] >> 6
	if ver != Version {
		return Message{}, ErrVersion
	}
	typ := Type((data[0] >> 4) & 0x3)
	tkl := int(data[0] & 0x0F)
	code := Code(data[1])
	messageID := binary.BigEndian.Uint16(data[2:4])

	if len(data) == 4 && code == Empty {
		return Message{Kind: KindEmpty, Ver: ver, Type: typ, Code: Empty, MessageID: messageID}, nil
	}
	if code == Empty {
		return Message{}, ErrEmptyWithBody
	}

	rest := data[4:]
	if len(rest) < tkl {
		return Message{}, ErrTooShort
	}
	token := append([]byte(nil), rest[:tkl]...)
	rest = rest[tkl:]

	// From here on Type/MessageID/Token are known even if option or
	// payload framing turns out to be malformed, so a caller that wants
	// to answer with 4.02 Bad Option (spec.md §7: "4.02 if producible,
	// else drop") has enough of the envelope to build one.
	partial := Message{Kind: KindRequest, Ver: ver, Type: typ, Code: code, MessageID: messageID, Token: token}

	opts, consumed, sawMarker, err := unmarshalOptions(rest)
	if err != nil {
		return partial, err
	}
	rest = rest[consumed:]

	var payload []byte
	if sawMarker {
		if len(rest) == 0 {
			return partial, ErrPayloadMarkerNoBody
		}
		payload = rest
	}

	return Message{
		Kind:      KindRequest,
		Ver:       ver,
		Type:      typ,
		Code:      code,
		MessageID: messageID,
		Token:     token,
		Options:   opts,
		Payload:   payload,
	}, nil
}

// Serialize re-encodes a Message (normally a Response built by the
// dispatcher) back into wire bytes, per spec.md §4.2.
func (m Message) Serialize() ([]byte, error) {
	if len(m.Token) > 0xF {
		return nil, ErrInvalidTokenLength
	}

	buf := make([]byte, 4, 4+len(m.Token)+16+len(m.Payload)+1)
	buf[0] = (Version << 6) | (byte(m.Type) << 4) | byte(len(m.Token))
	buf[1] = byte(m.Code)
	binary.BigEndian.PutUint16(buf[2:4], m.MessageID)
	buf = append(buf, m.Token...)
	buf = append(buf, marshalOptions(m.Options)...)

	if len(m.Payload) > 0 {
		buf = append(buf, 0xFF)
		buf = append(buf, m.Payload...)
	}
	return buf, nil
}

// encodePayload renders data onto the wire according to cf, per spec.md
// §4.2's "Content-format dispatch on serialize": text/plain and
// link-format are UTF-8 of the (already-stringified) value, xml and
// octet-stream pass bytes/strings through as given, application/json
// is marshaled, and application/exi (plus anything else outside the
// §6 table) is rejected with ErrContentFormat, which the dispatcher
// maps to 5.00 Internal Server Error (spec.md §7).
func encodePayload(cf ContentFormat, data interface{}) ([]byte, error) {
	switch cf {
	case TextPlain, AppLinkFormat, AppXML, AppOctets:
		switch v := data.(type) {
		case nil:
			return nil, nil
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		default:
			return []byte(fmt.Sprintf("%v", v)), nil
		}
	case AppJSON:
		if data == nil {
			return nil, nil
		}
		return json.Marshal(data)
	default:
		return nil, ErrContentFormat
	}
}

// payloadEmpty reports whether data represents "no payload" (spec.md
// §3: "present payload must be non-empty").
func payloadEmpty(data interface{}) bool {
	switch v := data.(type) {
	case nil:
		return true
	case []byte:
		return len(v) == 0
	case string:
		return len(v) == 0
	default:
		return false
	}
}
