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

// Package p4rt_fake is an in-process P4Runtime switch for tests. It serves
// over a bufconn listener, records what it is sent and replays table entries
// it accepted on Read.
package p4rt_fake

import (
	"context"
	"net"
	"sync"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

const bufSize = 1 << 20

// Address is the dial target to use with DialOptions.
const Address = "bufnet"

type Switch struct {
	p4_v1.UnimplementedP4RuntimeServer

	// Set before Start
	PacketIns []*p4_v1.PacketIn // Sent after the first arbitration
	WriteErrs []error           // Result of the n-th Write, nil entries succeed
	StreamErr error             // Ends the stream after the packet-ins, if set

	mu           sync.Mutex // Protects the following:
	arbitrations []*p4_v1.MasterArbitrationUpdate
	pipelines    []*p4_v1.SetForwardingPipelineConfigRequest
	writes       []*p4_v1.WriteRequest
	entries      []*p4_v1.TableEntry
	// end mu Protection

	lis *bufconn.Listener
	srv *grpc.Server
}

// Start serves s until Stop.
func (s *Switch) Start() {
	s.lis = bufconn.Listen(bufSize)
	s.srv = grpc.NewServer()
	p4_v1.RegisterP4RuntimeServer(s.srv, s)
	go s.srv.Serve(s.lis)
}

func (s *Switch) Stop() {
	s.srv.Stop()
}

func (s *Switch) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
	}
}

func (s *Switch) Arbitrations() []*p4_v1.MasterArbitrationUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*p4_v1.MasterArbitrationUpdate(nil), s.arbitrations...)
}

func (s *Switch) Pipelines() []*p4_v1.SetForwardingPipelineConfigRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*p4_v1.SetForwardingPipelineConfigRequest(nil), s.pipelines...)
}

func (s *Switch) Writes() []*p4_v1.WriteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*p4_v1.WriteRequest(nil), s.writes...)
}

func (s *Switch) StreamChannel(stream p4_v1.P4Runtime_StreamChannelServer) error {
	arbitrated := false
	for {
		req, err := stream.Recv()
		if err != nil {
			return nil
		}
		arb := req.GetArbitration()
		if arb == nil {
			continue
		}

		s.mu.Lock()
		s.arbitrations = append(s.arbitrations, proto.Clone(arb).(*p4_v1.MasterArbitrationUpdate))
		s.mu.Unlock()

		err = stream.Send(&p4_v1.StreamMessageResponse{
			Update: &p4_v1.StreamMessageResponse_Arbitration{
				Arbitration: &p4_v1.MasterArbitrationUpdate{
					DeviceId:   arb.GetDeviceId(),
					ElectionId: arb.GetElectionId(),
				},
			},
		})
		if err != nil {
			return err
		}

		if arbitrated {
			continue
		}
		arbitrated = true
		for _, pkt := range s.PacketIns {
			err = stream.Send(&p4_v1.StreamMessageResponse{
				Update: &p4_v1.StreamMessageResponse_Packet{Packet: pkt},
			})
			if err != nil {
				return err
			}
		}
		if s.StreamErr != nil {
			return s.StreamErr
		}
	}
}

func (s *Switch) SetForwardingPipelineConfig(ctx context.Context, req *p4_v1.SetForwardingPipelineConfigRequest) (*p4_v1.SetForwardingPipelineConfigResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines = append(s.pipelines, req)
	return &p4_v1.SetForwardingPipelineConfigResponse{}, nil
}

func (s *Switch) Write(ctx context.Context, req *p4_v1.WriteRequest) (*p4_v1.WriteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.writes)
	s.writes = append(s.writes, req)
	if n < len(s.WriteErrs) && s.WriteErrs[n] != nil {
		return nil, s.WriteErrs[n]
	}
	for _, u := range req.GetUpdates() {
		if te := u.GetEntity().GetTableEntry(); te != nil && u.GetType() == p4_v1.Update_INSERT {
			s.entries = append(s.entries, te)
		}
	}
	return &p4_v1.WriteResponse{}, nil
}

// Read returns every accepted entry, one entity per response.
func (s *Switch) Read(req *p4_v1.ReadRequest, stream p4_v1.P4Runtime_ReadServer) error {
	s.mu.Lock()
	entries := append([]*p4_v1.TableEntry(nil), s.entries...)
	s.mu.Unlock()

	for _, te := range entries {
		err := stream.Send(&p4_v1.ReadResponse{
			Entities: []*p4_v1.Entity{
				{Entity: &p4_v1.Entity_TableEntry{TableEntry: te}},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
