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
package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
	"google.golang.org/protobuf/encoding/prototext"
)

type Sink interface {
	Emit(e Event)
}

// Formatter renders an event as zero or more output lines. An empty result
// means the event produces no output.
type Formatter interface {
	Format(e Event) []string
}

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event.
var Discard Sink = discard{}

type WriterSink struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
}

func NewWriterSink(w io.Writer, formatter Formatter) *WriterSink {
	if formatter == nil {
		formatter = TextFormatter{}
	}
	return &WriterSink{
		w:         w,
		formatter: formatter,
	}
}

func (s *WriterSink) Emit(e Event) {
	lines := s.formatter.Format(e)
	if len(lines) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		if _, err := io.WriteString(s.w, line+"\n"); err != nil {
			glog.Warningf("diag: writing %s: %s", Name(e), err)
			return
		}
	}
}

// TextFormatter produces the plain trace printed by the tutorial tools.
type TextFormatter struct{}

func (TextFormatter) Format(e Event) []string {
	switch ev := e.(type) {
	case PipelineInstalled:
		return []string{fmt.Sprintf("Installed P4 Program using SetForwardingPipelineConfig on %s", ev.Switch)}
	case RuleInstalled:
		return []string{fmt.Sprintf("Installed ingress forwarding rule on %s", ev.Switch)}
	case TableDumpBegin:
		return []string{"", fmt.Sprintf("----- Reading tables rules for %s -----", ev.Switch)}
	case TableEntry:
		return []string{formatTableEntry(ev)}
	case PacketWait:
		return []string{"Wait for packet in"}
	case PacketIn:
		return []string{"PACKET IN received", prototext.Format(ev.Packet)}
	case Shutdown:
		return []string{" Shutting down."}
	case RPCError:
		return []string{fmt.Sprintf("gRPC Error: %s(%s)[%s:%d]", ev.Message, ev.Code, ev.File, ev.Line)}
	case Sniffing:
		return []string{fmt.Sprintf("sniffing on %s", ev.Iface)}
	case ProbeBegin:
		return []string{""}
	case HopReport:
		return []string{fmt.Sprintf("Switch %d - Port %d: %s Mbps, Qdepth: %d",
			ev.SwitchID, ev.Port, FormatUtilization(ev.Utilization), ev.QDepth)}
	case RerouteSuggestion:
		return []string{fmt.Sprintf("==%s==", ev.Suggestion)}
	default:
		return nil
	}
}

// FormatUtilization prints a utilization with the shortest exact decimal
// form, so 8000 prints as "8000" and 12.5 as "12.5".
func FormatUtilization(u float64) string {
	return strconv.FormatFloat(u, 'f', -1, 64)
}

func formatTableEntry(e TableEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", e.Table)
	for _, m := range e.Matches {
		fmt.Fprintf(&b, "%s%s", m.Name, m.Value)
	}
	fmt.Fprintf(&b, "-> action:%s with parameters:", e.Action)
	for _, p := range e.Params {
		fmt.Fprintf(&b, " %s %s", p.Name, p.Value)
	}
	return b.String()
}
