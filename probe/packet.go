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
package probe

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frame describes a probe as it looks after crossing len(Hops) switches.
// Hops are in wire order, the last one gets the bottom of stack bit.
type Frame struct {
	SrcMAC      net.HardwareAddr
	DstMAC      net.HardwareAddr
	LinkID      uint8
	Hops        []ProbeData
	EgressSpecs []uint8
}

// Serialize builds the Ethernet frame. Frames shorter than the Ethernet
// minimum are padded by gopacket and the padding ends up in ProbeFwd.
// e.g. MAC net.HardwareAddr{0xFF, 0xAA, 0xFA, 0xAA, 0xFF, 0xAA}
func (f *Frame) Serialize() ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	pktLayers := []gopacket.SerializableLayer{
		&layers.Ethernet{
			SrcMAC:       f.SrcMAC,
			DstMAC:       f.DstMAC,
			EthernetType: EthernetTypeProbe,
		},
		&Probe{
			HopCnt: uint8(len(f.Hops)),
			LinkID: f.LinkID,
		},
	}
	for i := range f.Hops {
		hop := f.Hops[i]
		hop.BOS = i == len(f.Hops)-1
		pktLayers = append(pktLayers, &hop)
	}
	pktLayers = append(pktLayers, &ProbeFwd{EgressSpecs: f.EgressSpecs})

	if err := gopacket.SerializeLayers(buf, opts, pktLayers...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
