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

// Package capture provides the frame sources the probe sniffer reads from:
// a live raw socket on an interface or a pcap file.
package capture

import (
	"context"
	"io"

	"github.com/cisco-open/go-p4-linkmon/config"
	"github.com/golang/glog"
	"github.com/google/gopacket"
)

type Source interface {
	gopacket.PacketDataSource
	io.Closer
	// Name is what the source reads from, for display
	Name() string
}

// Open returns the source configured in cfg. A pcap file takes precedence
// over the interface. With a record file set every frame read is also
// written there.
func Open(cfg config.Sniffer) (Source, error) {
	var src Source
	var err error
	if cfg.PcapFile != "" {
		src, err = OpenPcapFile(cfg.PcapFile)
	} else {
		src, err = OpenInterface(cfg.Iface, cfg.KernelFilter)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RecordFile != "" {
		rec, err := NewRecorder(src, cfg.RecordFile)
		if err != nil {
			src.Close()
			return nil, err
		}
		src = rec
	}
	return src, nil
}

// CloseOnDone closes c once ctx is done, which unblocks a pending read.
// The returned func stops the watch.
func CloseOnDone(ctx context.Context, c io.Closer) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			if glog.V(1) {
				glog.Infof("Closing capture source")
			}
			if err := c.Close(); err != nil {
				glog.Warningf("Closing capture source: %s", err)
			}
		}
	}()
	return func() { close(done) }
}
