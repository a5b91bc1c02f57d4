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

// Package monitor turns decoded probes into per hop link reports and
// rerouting hints.
package monitor

import (
	"errors"

	"github.com/cisco-open/go-p4-linkmon/probe"
	"github.com/google/gopacket"
)

// ErrMissingProbeHeader is returned for a frame carrying probe data records
// but no probe header, so no link id.
var ErrMissingProbeHeader = errors.New("malformed probe: no probe header")

// Hop is what one switch reported about the port the probe left on.
type Hop struct {
	SwitchID uint8
	Port     uint8
	ByteCnt  uint32
	LastTime uint64
	CurTime  uint64
	QDepth   uint32
}

// Utilization is the port rate in bits per time unit between the two
// timestamps, with microsecond timestamps that is Mbps. It is 0 when both
// timestamps are equal.
func (h Hop) Utilization() float64 {
	if h.CurTime == h.LastTime {
		return 0
	}
	return 8 * float64(h.ByteCnt) / (float64(h.CurTime) - float64(h.LastTime))
}

func hopFromProbeData(d *probe.ProbeData) Hop {
	return Hop{
		SwitchID: d.SwID,
		Port:     d.Port,
		ByteCnt:  d.ByteCnt,
		LastTime: d.LastTime,
		CurTime:  d.CurTime,
		QDepth:   d.QDepth,
	}
}

// Report is one probe: the link it monitors and its hops in wire order.
type Report struct {
	LinkID LinkID
	Hops   []Hop
}

// ParseReport extracts the report of a probe frame. Frames without probe
// data records return nil and no error.
func ParseReport(pkt gopacket.Packet) (*Report, error) {
	if pkt.Layer(probe.LayerTypeProbeData) == nil {
		return nil, nil
	}

	var probes []*probe.Probe
	report := &Report{}
	for _, l := range pkt.Layers() {
		switch layer := l.(type) {
		case *probe.Probe:
			probes = append(probes, layer)
		case *probe.ProbeData:
			report.Hops = append(report.Hops, hopFromProbeData(layer))
		}
	}
	if len(probes) == 0 {
		return nil, ErrMissingProbeHeader
	}
	report.LinkID = LinkID(probes[0].LinkID)

	return report, nil
}

type Thresholds struct {
	Utilization float64
	QDepth      uint32
}

func DefaultThresholds() Thresholds {
	return Thresholds{Utilization: 5, QDepth: 5}
}

// Exceeded reports whether a hop is loaded enough to reroute its link.
func (t Thresholds) Exceeded(utilization float64, qdepth uint32) bool {
	return utilization >= t.Utilization || qdepth >= t.QDepth
}
