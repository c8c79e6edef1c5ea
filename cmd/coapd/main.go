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

// Command coapd runs a small CoAP server exposing a couple of demo
// resources alongside the always-present well-known/core discovery
// document.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/GiterLab/coapd/coap"
)

func main() {
	var (
		host  = flag.String("host", "0.0.0.0", "address to listen on")
		port  = flag.Int("port", 5683, "UDP port to listen on")
		debug = flag.Bool("debug", false, "enable packet tracing")
	)
	flag.Parse()

	coap.Debug(*debug)

	server := coap.NewServer()
	registerDemoResources(server.Registry)

	addr := *host + ":" + strconv.Itoa(*port)
	coap.GLog.Info("[coapd] listening on %s", addr)
	if err := server.ListenAndServe("udp", addr); err != nil {
		fmt.Fprintf(os.Stderr, "coapd: %s\n", err)
		os.Exit(1)
	}
}

// registerDemoResources wires up a couple of illustrative resources:
// a static greeting and a tiny in-memory temperature sensor with a PUT
// handler for setting the reading.
func registerDemoResources(reg *coap.Registry) {
	hi := coap.NewResource("hi")
	hi.Attributes = coap.Attributes{Title: "hi", RT: "message"}
	hi.Get = func(coap.Params) (coap.Payload, error) {
		return coap.Payload{Data: []byte("Hello World!"), ContentFormat: coap.TextPlain}, nil
	}
	if err := reg.Add(hi); err != nil {
		panic(err)
	}

	sensor := newTemperatureSensor()
	temp := coap.NewResource("sensors/temperature")
	temp.Attributes = coap.Attributes{Title: "temperature", RT: "temperature", IF: "sensor"}
	temp.Get = sensor.get
	temp.Put = sensor.put
	if err := reg.Add(temp); err != nil {
		panic(err)
	}
}

// temperatureSensor is a trivial mutable resource: GET returns the last
// value Put set, defaulting to "0".
type temperatureSensor struct {
	value []byte
}

func newTemperatureSensor() *temperatureSensor {
	return &temperatureSensor{value: []byte("0")}
}

func (s *temperatureSensor) get(coap.Params) (coap.Payload, error) {
	return coap.Payload{Data: s.value, ContentFormat: coap.TextPlain}, nil
}

func (s *temperatureSensor) put(p coap.Params) (coap.Payload, error) {
	s.value = append([]byte(nil), p.Body...)
	return coap.Payload{Data: s.value, ContentFormat: coap.TextPlain}, nil
}
