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

// Package probe decodes the link monitoring probe headers. A probe rides
// directly on Ethernet:
//
//	Ethernet | Probe | ProbeData * hop_cnt | ProbeFwd
//
// Each switch on the path pushes one ProbeData record, so the outermost
// record belongs to the last switch visited.
package probe

import (
	"encoding/binary"
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	EthernetTypeProbe layers.EthernetType = 0x0812

	probeLen     = 2
	probeDataLen = 22
)

// Use 2000+ for custom layers, they must be unique
const (
	LayerTypeProbe     = gopacket.LayerType(2101)
	LayerTypeProbeData = gopacket.LayerType(2102)
	LayerTypeProbeFwd  = gopacket.LayerType(2103)
)

func init() {
	gopacket.RegisterLayerType(int(LayerTypeProbe), gopacket.LayerTypeMetadata{
		Name:    "Probe",
		Decoder: gopacket.DecodeFunc(decodeProbe),
	})
	gopacket.RegisterLayerType(int(LayerTypeProbeData), gopacket.LayerTypeMetadata{
		Name:    "ProbeData",
		Decoder: gopacket.DecodeFunc(decodeProbeData),
	})
	gopacket.RegisterLayerType(int(LayerTypeProbeFwd), gopacket.LayerTypeMetadata{
		Name:    "ProbeFwd",
		Decoder: gopacket.DecodeFunc(decodeProbeFwd),
	})

	layers.EthernetTypeMetadata[EthernetTypeProbe] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodeProbe),
		Name:       "Probe",
		LayerType:  LayerTypeProbe,
	}
}

// Probe is the fixed probe header. HopCnt counts the ProbeData records that
// follow, LinkID names the monitored path.
type Probe struct {
	layers.BaseLayer

	HopCnt uint8
	LinkID uint8
}

func (p *Probe) LayerType() gopacket.LayerType {
	return LayerTypeProbe
}

func (p *Probe) CanDecode() gopacket.LayerClass {
	return LayerTypeProbe
}

func (p *Probe) NextLayerType() gopacket.LayerType {
	if p.HopCnt == 0 {
		return LayerTypeProbeFwd
	}
	return LayerTypeProbeData
}

func (p *Probe) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < probeLen {
		df.SetTruncated()
		return errors.New("probe header too small")
	}
	p.HopCnt = data[0]
	p.LinkID = data[1]

	p.BaseLayer = layers.BaseLayer{Contents: data[:probeLen], Payload: data[probeLen:]}
	return nil
}

func (p *Probe) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(probeLen)
	if err != nil {
		return err
	}
	bytes[0] = p.HopCnt
	bytes[1] = p.LinkID
	return nil
}

func decodeProbe(data []byte, p gopacket.PacketBuilder) error {
	probe := &Probe{}
	if err := probe.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(probe)
	return p.NextDecoder(probe.NextLayerType())
}

// ProbeData is the record one switch adds for the egress port the probe
// left on. Times are 48 bit microsecond timestamps and ByteCnt the bytes
// sent on the port between them. BOS marks the last record.
type ProbeData struct {
	layers.BaseLayer

	BOS      bool
	SwID     uint8 // 7 bits
	Port     uint8
	ByteCnt  uint32
	LastTime uint64 // 48 bits
	CurTime  uint64 // 48 bits
	QDepth   uint32
}

func (d *ProbeData) LayerType() gopacket.LayerType {
	return LayerTypeProbeData
}

func (d *ProbeData) CanDecode() gopacket.LayerClass {
	return LayerTypeProbeData
}

func (d *ProbeData) NextLayerType() gopacket.LayerType {
	if d.BOS {
		return LayerTypeProbeFwd
	}
	return LayerTypeProbeData
}

func (d *ProbeData) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < probeDataLen {
		df.SetTruncated()
		return errors.New("probe data record too small")
	}
	d.BOS = data[0]&0x80 != 0
	d.SwID = data[0] & 0x7f
	d.Port = data[1]
	d.ByteCnt = binary.BigEndian.Uint32(data[2:6])
	d.LastTime = uint48(data[6:12])
	d.CurTime = uint48(data[12:18])
	d.QDepth = binary.BigEndian.Uint32(data[18:22])

	d.BaseLayer = layers.BaseLayer{Contents: data[:probeDataLen], Payload: data[probeDataLen:]}
	return nil
}

func (d *ProbeData) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(probeDataLen)
	if err != nil {
		return err
	}
	bytes[0] = d.SwID & 0x7f
	if d.BOS {
		bytes[0] |= 0x80
	}
	bytes[1] = d.Port
	binary.BigEndian.PutUint32(bytes[2:], d.ByteCnt)
	putUint48(bytes[6:], d.LastTime)
	putUint48(bytes[12:], d.CurTime)
	binary.BigEndian.PutUint32(bytes[18:], d.QDepth)
	return nil
}

func decodeProbeData(data []byte, p gopacket.PacketBuilder) error {
	d := &ProbeData{}
	if err := d.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(d)
	return p.NextDecoder(d.NextLayerType())
}

// ProbeFwd holds the egress port for each remaining hop, one byte each. It
// takes the rest of the frame, Ethernet padding included.
type ProbeFwd struct {
	layers.BaseLayer

	EgressSpecs []uint8
}

func (f *ProbeFwd) LayerType() gopacket.LayerType {
	return LayerTypeProbeFwd
}

func (f *ProbeFwd) CanDecode() gopacket.LayerClass {
	return LayerTypeProbeFwd
}

func (f *ProbeFwd) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func (f *ProbeFwd) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	f.EgressSpecs = data
	f.BaseLayer = layers.BaseLayer{Contents: data}
	return nil
}

func (f *ProbeFwd) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(len(f.EgressSpecs))
	if err != nil {
		return err
	}
	copy(bytes, f.EgressSpecs)
	return nil
}

func decodeProbeFwd(data []byte, p gopacket.PacketBuilder) error {
	f := &ProbeFwd{}
	if err := f.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(f)
	return nil
}

func uint48(b []byte) uint64 {
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}

func putUint48(b []byte, v uint64) {
	b[0] = byte(v >> 40)
	b[1] = byte(v >> 32)
	b[2] = byte(v >> 24)
	b[3] = byte(v >> 16)
	b[4] = byte(v >> 8)
	b[5] = byte(v)
}
