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
package capture

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cisco-open/go-p4-linkmon/probe"
	"github.com/golang/glog"
	"github.com/google/gopacket"
	"github.com/mdlayher/raw"
	"golang.org/x/net/bpf"
)

const ethPAll = 0x0003 // every protocol

// RawSource reads every frame seen on an interface through an AF_PACKET
// socket.
type RawSource struct {
	ifi  *net.Interface
	conn *raw.Conn
	buf  []byte

	closeOnce sync.Once
	closeErr  error
}

// OpenInterface listens on the named interface. With kernelFilter set only
// probe frames are passed up by the kernel.
func OpenInterface(name string, kernelFilter bool) (*RawSource, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}

	conn, err := raw.ListenPacket(ifi, ethPAll, nil)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", name, err)
	}
	if glog.V(1) {
		glog.Infof("Connected to %s", conn.LocalAddr())
	}

	if kernelFilter {
		filter, err := bpf.Assemble(ProbeFilter())
		if err != nil {
			conn.Close()
			return nil, err
		}
		if err := conn.SetBPF(filter); err != nil {
			conn.Close()
			return nil, fmt.Errorf("attaching filter on %s: %w", name, err)
		}
	}

	return newRawSource(ifi, conn), nil
}

// The buffer holds a full snapLen so tagged and jumbo frames are not cut.
func newRawSource(ifi *net.Interface, conn *raw.Conn) *RawSource {
	return &RawSource{
		ifi:  ifi,
		conn: conn,
		buf:  make([]byte, snapLen),
	}
}

// ProbeFilter accepts frames whose EtherType is the probe's and drops the
// rest.
func ProbeFilter() []bpf.Instruction {
	return []bpf.Instruction{
		// EtherType
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(probe.EthernetTypeProbe), SkipFalse: 1},
		bpf.RetConstant{Val: 0x40000},
		bpf.RetConstant{Val: 0},
	}
}

func (s *RawSource) Name() string {
	return s.ifi.Name
}

func (s *RawSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	n, _, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}

	data := make([]byte, n)
	copy(data, s.buf[:n])
	ci := gopacket.CaptureInfo{
		Timestamp:      time.Now(),
		CaptureLength:  n,
		Length:         n,
		InterfaceIndex: s.ifi.Index,
	}
	return data, ci, nil
}

func (s *RawSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
