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
	"os"
	"sync"

	"github.com/cisco-open/go-p4-linkmon/utils"
	"github.com/golang/glog"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65536

// PcapSource replays an Ethernet pcap file.
type PcapSource struct {
	name   string
	file   *os.File
	reader *pcapgo.Reader

	closeOnce sync.Once
	closeErr  error
}

func OpenPcapFile(fileName string) (*PcapSource, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("reading pcap %s: %w", fileName, err)
	}
	if lt := reader.LinkType(); lt != layers.LinkTypeEthernet {
		file.Close()
		return nil, fmt.Errorf("pcap %s: link type %s, want Ethernet", fileName, lt)
	}

	return &PcapSource{name: fileName, file: file, reader: reader}, nil
}

func (s *PcapSource) Name() string {
	return s.name
}

func (s *PcapSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return s.reader.ReadPacketData()
}

func (s *PcapSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.file.Close()
	})
	return s.closeErr
}

// Recorder copies every frame read from a source into a pcap file.
type Recorder struct {
	Source
	file   *os.File
	writer *pcapgo.Writer

	closeOnce sync.Once
	closeErr  error
}

func NewRecorder(src Source, fileName string) (*Recorder, error) {
	file, err := utils.OpenLogFile(fileName)
	if err != nil {
		return nil, err
	}
	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		file.Close()
		return nil, err
	}
	if glog.V(1) {
		glog.Infof("Recording %s to %s", src.Name(), fileName)
	}
	return &Recorder{Source: src, file: file, writer: writer}, nil
}

func (r *Recorder) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := r.Source.ReadPacketData()
	if err != nil {
		return data, ci, err
	}
	if werr := r.writer.WritePacket(ci, data); werr != nil {
		glog.Warningf("Recording frame: %s", werr)
	}
	return data, ci, nil
}

func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.Source.Close()
		if err := r.file.Close(); r.closeErr == nil {
			r.closeErr = err
		}
	})
	return r.closeErr
}
