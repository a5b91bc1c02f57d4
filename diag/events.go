/*
 * Copyright (c) 2022 Cisco Systems, Inc. and its affiliates
 * All rights reserved.
 *
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package diag carries the human readable trace of the controller and the
// probe sniffer. Components emit typed events into a Sink; rendering is done
// by a Formatter so that the captured data stays separate from its text.
package diag

import (
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
)

type Event interface {
	eventName() string
}

// Controller events

type PipelineInstalled struct {
	Switch string
}

type RuleInstalled struct {
	Switch string
}

type TableDumpBegin struct {
	Switch string
}

type Field struct {
	Name  string
	Value string
}

// TableEntry is one entry read back from a switch, already translated to
// p4info names.
type TableEntry struct {
	Table   string
	Matches []Field
	Action  string
	Params  []Field
}

type PacketWait struct{}

type PacketIn struct {
	SeqNum uint64
	Packet *p4_v1.PacketIn
}

type Shutdown struct{}

// RPCError is a decoded gRPC failure. File and Line locate the call that
// failed.
type RPCError struct {
	Code    string
	Message string
	File    string
	Line    int
}

// Sniffer events

type Sniffing struct {
	Iface string
}

// ProbeBegin starts the report of one telemetry packet.
type ProbeBegin struct {
	Hops int
}

type HopReport struct {
	SwitchID    uint8
	Port        uint8
	Utilization float64
	QDepth      uint32
}

type RerouteSuggestion struct {
	LinkID     uint8
	Suggestion string
}

func (PipelineInstalled) eventName() string { return "PipelineInstalled" }
func (RuleInstalled) eventName() string     { return "RuleInstalled" }
func (TableDumpBegin) eventName() string    { return "TableDumpBegin" }
func (TableEntry) eventName() string        { return "TableEntry" }
func (PacketWait) eventName() string        { return "PacketWait" }
func (PacketIn) eventName() string          { return "PacketIn" }
func (Shutdown) eventName() string          { return "Shutdown" }
func (RPCError) eventName() string          { return "RPCError" }
func (Sniffing) eventName() string          { return "Sniffing" }
func (ProbeBegin) eventName() string        { return "ProbeBegin" }
func (HopReport) eventName() string         { return "HopReport" }
func (RerouteSuggestion) eventName() string { return "RerouteSuggestion" }

// Name returns the event kind, used by logging.
func Name(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}
