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
package monitor

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/cisco-open/go-p4-linkmon/diag"
	"github.com/golang/glog"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

type Stats struct {
	Frames    uint64
	Probes    uint64
	Malformed uint64
	Reroutes  uint64
}

type Monitor struct {
	sink       diag.Sink
	thresholds Thresholds

	mu    sync.Mutex // Protects the following:
	stats Stats
	// end mu Protection
}

func New(sink diag.Sink, thresholds Thresholds) *Monitor {
	if sink == nil {
		sink = diag.Discard
	}
	return &Monitor{
		sink:       sink,
		thresholds: thresholds,
	}
}

func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Monitor) count(f func(s *Stats)) {
	m.mu.Lock()
	f(&m.stats)
	m.mu.Unlock()
}

// HandlePacket reports one captured frame. Frames that are not probes are
// ignored. A malformed probe is logged, skipped and its error returned.
func (m *Monitor) HandlePacket(pkt gopacket.Packet) error {
	m.count(func(s *Stats) { s.Frames++ })

	report, err := ParseReport(pkt)
	if err != nil {
		m.count(func(s *Stats) { s.Malformed++ })
		glog.Warningf("Skipping packet: %s", err)
		return err
	}
	if report == nil {
		return nil
	}
	m.count(func(s *Stats) { s.Probes++ })

	m.sink.Emit(diag.ProbeBegin{Hops: len(report.Hops)})
	for _, hop := range report.Hops {
		utilization := hop.Utilization()
		m.sink.Emit(diag.HopReport{
			SwitchID:    hop.SwitchID,
			Port:        hop.Port,
			Utilization: utilization,
			QDepth:      hop.QDepth,
		})

		if !m.thresholds.Exceeded(utilization, hop.QDepth) {
			continue
		}
		suggestion, ok := report.LinkID.Suggestion()
		if !ok {
			if glog.V(2) {
				glog.Infof("No suggestion for link %d", report.LinkID)
			}
			continue
		}
		m.count(func(s *Stats) { s.Reroutes++ })
		m.sink.Emit(diag.RerouteSuggestion{LinkID: uint8(report.LinkID), Suggestion: suggestion})
	}
	return nil
}

// Run decodes frames from src, starting at Ethernet, and handles them one
// at a time until src is exhausted or ctx is done. Closing src is up to the
// caller; a read error after ctx is done is a normal stop.
func (m *Monitor) Run(ctx context.Context, src gopacket.PacketDataSource) error {
	packetSource := gopacket.NewPacketSource(src, layers.LayerTypeEthernet)
	for {
		if ctx.Err() != nil {
			return nil
		}
		pkt, err := packetSource.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if glog.V(2) {
			glog.Infof("Captured %d bytes", len(pkt.Data()))
		}
		// Malformed probes were already logged
		_ = m.HandlePacket(pkt)
	}
}
