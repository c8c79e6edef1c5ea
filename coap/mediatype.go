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
	"strconv"
)

// ContentFormat is a CoAP content-format numeric identifier (spec.md §6).
type ContentFormat uint16

const (
	TextPlain     ContentFormat = 0
	AppLinkFormat ContentFormat = 40
	AppXML        ContentFormat = 41
	AppOctets     ContentFormat = 42
	AppExi        ContentFormat = 47
	AppJSON       ContentFormat = 50
)

var contentFormatToString = map[ContentFormat]string{
	TextPlain:     "text/plain",
	AppLinkFormat: "application/link-format",
	AppXML:        "application/xml",
	AppOctets:     "application/octet-stream",
	AppExi:        "application/exi",
	AppJSON:       "application/json",
}

func (c ContentFormat) String() string {
	if s, ok := contentFormatToString[c]; ok {
		return s
	}
	return "ContentFormat(" + strconv.FormatInt(int64(c), 10) + ")"
}

func ToContentFormat(v string) (ContentFormat, error) {
	for key, val := range contentFormatToString {
		if val == v {
			return key, nil
		}
	}
	return 0, errors.New("not found")
}
