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
	"net"

	"github.com/astaxie/beego/logs"
)

const maxPacketLen = 1500

var debugEnable bool

// GLog is the package logger, swappable via SetLogger the same way the
// sibling go-coap package does it.
var GLog *logs.BeeLogger

func init() {
	GLog = logs.NewLogger(10000)
	GLog.SetLogger("console", `{"level":7}`)
	GLog.EnableFuncCallDepth(true)
	GLog.SetLogFuncCallDepth(3)
}

// Debug toggles packet tracing.
func Debug(enable bool) {
	debugEnable = enable
}

// SetLogger replaces the package logger.
func SetLogger(l *logs.BeeLogger) {
	if l != nil {
		GLog = l
	}
}

// Server owns a registry and processes datagrams one at a time on the
// goroutine that calls Serve (spec.md §5: cooperative single-threaded
// turns, no fan-out per packet, no retransmission/dedup/congestion
// control — all explicitly out of scope).
type Server struct {
	Registry *Registry
}

// NewServer builds a Server around a fresh Registry (which already
// carries the well-known/core discovery resource).
func NewServer() *Server {
	return &Server{Registry: NewRegistry()}
}

// ListenAndServe resolves addr and serves forever, or until the
// listener fails for a reason Serve treats as fatal.
func (s *Server) ListenAndServe(network, addr string) error {
	uaddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP(network, uaddr)
	if err != nil {
		return err
	}
	return s.Serve(conn)
}

// Serve reads datagrams off conn and handles each one in turn before
// reading the next (spec.md §5). A handler panic is recovered and
// logged so one bad request cannot take the loop down; a handler that
// never returns, however, stalls every later request, same as the
// single-threaded model the spec requires.
func (s *Server) Serve(conn *net.UDPConn) error {
	buf := make([]byte, maxPacketLen)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if debugEnable {
				GLog.Error("[coap] ReadFromUDP error: %s", err)
			}
			return err
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		s.handleDatagram(conn, addr, datagram)
	}
}

// handleDatagram runs one request turn to completion. Malformed
// datagrams are dropped, except that an unknown critical option gets a
// best-effort 4.02 Bad Option reply when enough of the envelope parsed
// to build one (spec.md §7).
func (s *Server) handleDatagram(conn *net.UDPConn, addr *net.UDPAddr, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			GLog.Error("[coap] handler panic: %v", r)
		}
	}()

	if debugEnable {
		GLog.Debug("[coap] %v recv %d bytes: % X", addr, len(data), data)
	}

	msg, err := Deserialize(data)
	if err != nil {
		s.handleBadDatagram(conn, addr, msg, err)
		return
	}

	switch msg.Kind {
	case KindEmpty:
		// No response is defined for a bare Empty datagram in this
		// core's scope (Observe/ping keepalive semantics are out of
		// scope, spec.md §1).
		return
	case KindRequest:
		resp, ok := Dispatch(s.Registry, msg)
		if !ok {
			return
		}
		s.send(conn, addr, resp)
	}
}

// handleBadDatagram answers an unknown critical option with 4.02 Bad
// Option when Deserialize recovered enough of the envelope
// (Type/MessageID) to build one; every other framing error, and an
// unknown option without a usable envelope, is dropped silently
// (spec.md §7). As with a
// well-formed request (Dispatch), a partial envelope whose Type is
// Acknowledgement or Reset never gets a reply (spec.md §8).
func (s *Server) handleBadDatagram(conn *net.UDPConn, addr *net.UDPAddr, partial Message, err error) {
	if debugEnable {
		GLog.Info("[coap] %v malformed datagram: %s", addr, err)
	}
	if partial.Kind != KindRequest || !errors.Is(err, ErrUnknownOption) {
		return
	}

	var respType Type
	switch partial.Type {
	case Confirmable:
		respType = Acknowledgement
	case NonConfirmable:
		respType = NonConfirmable
	default:
		return
	}

	resp := Message{
		Kind:      KindResponse,
		Type:      respType,
		Code:      BadOption,
		MessageID: partial.MessageID,
		Token:     partial.Token,
		Payload:   []byte(err.Error()),
	}
	s.send(conn, addr, resp)
}

func (s *Server) send(conn *net.UDPConn, addr *net.UDPAddr, msg Message) {
	data, err := msg.Serialize()
	if err != nil {
		GLog.Error("[coap] serialize response: %s", err)
		return
	}
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		GLog.Error("[coap] write to %v: %s", addr, err)
	}
}
