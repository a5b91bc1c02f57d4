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
package p4rt_client

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cisco-open/go-p4-linkmon/utils"
	"github.com/golang/glog"
	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

const protoDumpTimeFormat = "2006-01-02 15:04:05.000000"

// ProtoDump appends every request sent on a connection, in protobuf text
// format, to a log file for offline inspection.
type ProtoDump struct {
	mu  sync.Mutex // Protects the following:
	w   io.WriteCloser
	now func() time.Time
	// end mu Protection
}

func NewProtoDump(fileName string) (*ProtoDump, error) {
	file, err := utils.OpenLogFile(fileName)
	if err != nil {
		return nil, err
	}
	if glog.V(1) {
		glog.Infof("Dumping P4Runtime requests to %s", fileName)
	}
	return newProtoDumpWriter(file), nil
}

func newProtoDumpWriter(w io.WriteCloser) *ProtoDump {
	return &ProtoDump{w: w, now: time.Now}
}

func (d *ProtoDump) Write(method string, msg interface{}) {
	m, ok := msg.(proto.Message)
	if !ok {
		return
	}
	text := prototext.MarshalOptions{Multiline: true}.Format(m)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.w == nil {
		return
	}
	_, err := fmt.Fprintf(d.w, "\n[%s] %s\n---\n%s---\n", d.now().Format(protoDumpTimeFormat), method, text)
	if err != nil {
		glog.Warningf("proto dump %s: %s", method, err)
	}
}

func (d *ProtoDump) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.w == nil {
		return nil
	}
	err := d.w.Close()
	d.w = nil
	return err
}

func (d *ProtoDump) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{},
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		d.Write(method, req)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (d *ProtoDump) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn,
		method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		cs, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			return nil, err
		}
		return &dumpClientStream{ClientStream: cs, dump: d, method: method}, nil
	}
}

type dumpClientStream struct {
	grpc.ClientStream
	dump   *ProtoDump
	method string
}

func (s *dumpClientStream) SendMsg(m interface{}) error {
	s.dump.Write(s.method, m)
	return s.ClientStream.SendMsg(m)
}
