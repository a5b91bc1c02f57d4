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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/retry"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	status1 "google.golang.org/grpc/status"
)

const (
	P4RT_MAX_ARBITRATION_QUEUE_SIZE = 100
	P4RT_MAX_PACKET_QUEUE_SIZE      = 100
	P4RT_STREAM_TERM_CHAN_SIZE      = 100
	P4RT_PER_RETRY_TIMEOUT          = 5 * time.Second
)

var errStoppedByUser = errors.New("Stopped by User")

type P4RTStreamParameters struct {
	Name        string
	DeviceId    uint64
	ElectionIdH uint64
	ElectionIdL uint64
	PacketQSize int // 0 means P4RT_MAX_PACKET_QUEUE_SIZE
}

func (p *P4RTStreamParameters) String() string {
	return fmt.Sprintf("Name(%s)-DeviceId(%d)-ElectionId(%d:%d)",
		p.Name, p.DeviceId, p.ElectionIdH, p.ElectionIdL)
}

type P4RTClientParameters struct {
	Name          string
	Address       string
	ProtoDumpFile string // Every request sent is appended here, if set
	MaxRetries    uint   // Unary RPC retries, 0 disables
	Streams       []P4RTStreamParameters
}

func (p *P4RTClientParameters) String() string {
	return fmt.Sprintf("Name(%s)-%s", p.Name, p.Address)
}

type P4RTArbInfo struct {
	SeqNum uint64
	Arb    *p4_v1.MasterArbitrationUpdate
}

type P4RTArbCounters struct {
	RxArbCntr       uint64
	RxArbCntrDrop   uint64
	RxArbCntrQueued uint64
}

type P4RTPacketInfo struct {
	SeqNum uint64
	Pkt    *p4_v1.PacketIn
}

type P4RTPacketCounters struct {
	RxPktCntr       uint64
	RxPktCntrDrop   uint64
	RxPktCntrQueued uint64
}

type P4RTStreamTermErr struct {
	ClientParams *P4RTClientParameters
	StreamParams *P4RTStreamParameters
	StreamErr    error
}

func (p *P4RTStreamTermErr) String() string {
	return fmt.Sprintf("ClientParams(%s) StreamParams(%s) Err(%s)",
		p.ClientParams, p.StreamParams, p.StreamErr)
}

type P4RTClientStream struct {
	Params     P4RTStreamParameters // Make a copy (initial config)
	stream     p4_v1.P4Runtime_StreamChannelClient
	cancelFunc context.CancelFunc

	paramsMu   sync.Mutex     // Protects the following:
	deviceId   uint64         // Based on last sent Arbitration message
	electionId *p4_v1.Uint128 // Based on last sent Arbitration message
	// end paramsMu Protection

	stopMu  sync.Mutex // Protects the following:
	stop    bool
	termErr error // Why the RX routine exited
	// end stopMu Protection

	arb_mu      sync.Mutex // Protects the following:
	arbCond     *sync.Cond
	arbCounters P4RTArbCounters
	arbQSize    int
	arbQ        []*P4RTArbInfo
	// end arb_mu Protection

	pkt_mu      sync.Mutex // Protects the following:
	pktCond     *sync.Cond
	pktCounters P4RTPacketCounters
	pktQSize    int
	pktQ        []*P4RTPacketInfo
	// end pkt_mu Protection
}

func (p *P4RTClientStream) String() string {
	return fmt.Sprintf("Device(%d) Stream(%s)", p.Params.DeviceId, p.Params.Name)
}

func (p *P4RTClientStream) SetParams(deviceId uint64, electionId *p4_v1.Uint128) {
	p.paramsMu.Lock()
	defer p.paramsMu.Unlock()
	p.deviceId = deviceId
	p.electionId = electionId
}

func (p *P4RTClientStream) GetParams() (uint64, *p4_v1.Uint128) {
	p.paramsMu.Lock()
	defer p.paramsMu.Unlock()
	return p.deviceId, p.electionId
}

func (p *P4RTClientStream) ShouldStop() bool {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	return p.stop
}

func (p *P4RTClientStream) setTermErr(err error) {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	if p.termErr == nil {
		p.termErr = err
	}
}

// TermErr returns the error that ended the stream, io.EOF if it was stopped
// without one, or nil while it is still running.
func (p *P4RTClientStream) TermErr() error {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	if !p.stop {
		return nil
	}
	if p.termErr == nil || errors.Is(p.termErr, errStoppedByUser) {
		return io.EOF
	}
	return p.termErr
}

func (p *P4RTClientStream) Stop() {
	p.stopMu.Lock()
	p.stop = true
	p.stopMu.Unlock()

	// Signal waiting WaitArbitration routines.
	p.arb_mu.Lock()
	p.arbCond.Broadcast()
	p.arb_mu.Unlock()

	// Signal waiting WaitPacket routines.
	p.pkt_mu.Lock()
	p.pktCond.Broadcast()
	p.pkt_mu.Unlock()

	// Force the RX Recv() to wake up
	// (which would force the RX routing to Destroy and exit)
	if p.cancelFunc != nil {
		p.cancelFunc()
	}
}

// wakeOnDone broadcasts cond when ctx is done. The returned func must be
// called once the wait is over. mu must be the lock of cond.
func wakeOnDone(ctx context.Context, mu *sync.Mutex, cond *sync.Cond) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		}
	}()
	return func() { close(done) }
}

func (p *P4RTClientStream) QueueArbt(arbInfo *P4RTArbInfo) {
	p.arb_mu.Lock()
	p.arbCounters.RxArbCntr++
	arbInfo.SeqNum = p.arbCounters.RxArbCntr
	qLen := len(p.arbQ)
	if qLen >= p.arbQSize {
		p.arbCounters.RxArbCntrDrop++
		p.arb_mu.Unlock()
		glog.Warningf("'%s' Queue Full Dropping QSize(%d) Arb(%s)",
			p, qLen, arbInfo.Arb)
		return
	}

	p.arbQ = append(p.arbQ, arbInfo)
	p.arbCounters.RxArbCntrQueued++
	p.arbCond.Broadcast()

	p.arb_mu.Unlock()
}

func (p *P4RTClientStream) GetArbCounters() *P4RTArbCounters {
	p.arb_mu.Lock()
	defer p.arb_mu.Unlock()

	arbCounters := p.arbCounters
	return &arbCounters
}

// WaitArbitration blocks until an arbitration response is queued, the
// stream stops or ctx is done, and pops the oldest response.
func (p *P4RTClientStream) WaitArbitration(ctx context.Context) (*P4RTArbInfo, error) {
	p.arb_mu.Lock()
	defer p.arb_mu.Unlock()
	stopWake := wakeOnDone(ctx, &p.arb_mu, p.arbCond)
	defer stopWake()

	for len(p.arbQ) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.ShouldStop() {
			return nil, p.TermErr()
		}
		if glog.V(2) {
			glog.Infof("'%s' Waiting on Arbitration message (%d)\n",
				p, p.arbCounters.RxArbCntr)
		}
		p.arbCond.Wait()
	}

	arbInfo := p.arbQ[0]
	p.arbQ = p.arbQ[1:]

	return arbInfo, nil
}

func (p *P4RTClientStream) QueuePacket(pktInfo *P4RTPacketInfo) {
	p.pkt_mu.Lock()
	p.pktCounters.RxPktCntr++
	pktInfo.SeqNum = p.pktCounters.RxPktCntr
	qLen := len(p.pktQ)
	if qLen >= p.pktQSize {
		p.pktCounters.RxPktCntrDrop++
		p.pkt_mu.Unlock()
		glog.Warningf("'%s' Queue Full Dropping QSize(%d) Pkt(%s)",
			p, qLen, pktInfo.Pkt)
		return
	}

	p.pktQ = append(p.pktQ, pktInfo)
	p.pktCounters.RxPktCntrQueued++
	p.pktCond.Broadcast()

	p.pkt_mu.Unlock()
}

func (p *P4RTClientStream) GetPacketCounters() *P4RTPacketCounters {
	p.pkt_mu.Lock()
	defer p.pkt_mu.Unlock()

	pktCounters := p.pktCounters
	return &pktCounters
}

// WaitPacket blocks until a packet-in is queued, the stream stops or ctx is
// done, and pops the oldest packet. Packets already queued are returned even
// after the stream stopped.
func (p *P4RTClientStream) WaitPacket(ctx context.Context) (*P4RTPacketInfo, error) {
	p.pkt_mu.Lock()
	defer p.pkt_mu.Unlock()
	stopWake := wakeOnDone(ctx, &p.pkt_mu, p.pktCond)
	defer stopWake()

	for len(p.pktQ) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.ShouldStop() {
			return nil, p.TermErr()
		}
		if glog.V(2) {
			glog.Infof("'%s' Waiting on Packet (%d)\n", p, p.pktCounters.RxPktCntr)
		}
		p.pktCond.Wait()
	}

	pktInfo := p.pktQ[0]
	p.pktQ = p.pktQ[1:]

	return pktInfo, nil
}

func NewP4RTClientStream(params *P4RTStreamParameters, stream p4_v1.P4Runtime_StreamChannelClient,
	cancelFunc context.CancelFunc) *P4RTClientStream {

	cStream := &P4RTClientStream{
		Params:     *params,
		stream:     stream,
		cancelFunc: cancelFunc,
		arbQSize:   P4RT_MAX_ARBITRATION_QUEUE_SIZE,
		pktQSize:   P4RT_MAX_PACKET_QUEUE_SIZE,
	}

	if params.PacketQSize > 0 {
		cStream.pktQSize = params.PacketQSize
	}

	// Initialize
	cStream.arbCond = sync.NewCond(&cStream.arb_mu)
	cStream.pktCond = sync.NewCond(&cStream.pkt_mu)

	return cStream
}

// P4RTClient is one switch connection: a gRPC channel plus its stream
// channels, indexed by name.
type P4RTClient struct {
	Params        P4RTClientParameters //Make a copy
	StreamTermErr chan *P4RTStreamTermErr

	client_mu  sync.Mutex // Protects the following:
	connection *grpc.ClientConn
	p4rtClient p4_v1.P4RuntimeClient
	dump       *ProtoDump
	streams    map[string]*P4RTClientStream // We can have multiple streams per client
	// end client_mu Protection
}

func (p *P4RTClient) String() string {
	return fmt.Sprintf("%s(%s)", p.Params.Name, p.Params.Address)
}

func (p *P4RTClient) dialOptions() []grpc.DialOption {
	unary := []grpc.UnaryClientInterceptor{}
	stream := []grpc.StreamClientInterceptor{}
	if p.dump != nil {
		unary = append(unary, p.dump.UnaryClientInterceptor())
		stream = append(stream, p.dump.StreamClientInterceptor())
	}

	// Retry (unary only, a bidi stream cannot be replayed)
	unary = append(unary, grpc_retry.UnaryClientInterceptor(
		grpc_retry.WithMax(p.Params.MaxRetries),
		grpc_retry.WithPerRetryTimeout(P4RT_PER_RETRY_TIMEOUT),
	))

	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpc_middleware.ChainUnaryClient(unary...)),
		grpc.WithStreamInterceptor(grpc_middleware.ChainStreamClient(stream...)),
	}
}

// ServerConnect dials the switch. The connection is lazy, the first RPC
// reports an unreachable switch. extra options are appended to the defaults.
func (p *P4RTClient) ServerConnect(extra ...grpc.DialOption) error {
	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	if p.connection != nil {
		return fmt.Errorf("'%s' Client Already connected", p)
	}

	if p.Params.ProtoDumpFile != "" && p.dump == nil {
		dump, err := NewProtoDump(p.Params.ProtoDumpFile)
		if err != nil {
			glog.Errorf("'%s' Opening proto dump: %s", p, err)
			return err
		}
		p.dump = dump
	}

	if glog.V(2) {
		glog.Infof("'%s' Connecting to Server\n", p)
	}
	dialOpts := append(p.dialOptions(), extra...)
	conn, err := grpc.Dial(p.Params.Address, dialOpts...)
	if err != nil {
		glog.Errorf("'%s' Connecting to Server: %s", p, err)
		return err
	}
	p.connection = conn
	if glog.V(1) {
		glog.Infof("'%s' Connected to Server", p)
	}

	// Create a new P4RuntimeClient instance
	p.p4rtClient = p4_v1.NewP4RuntimeClient(conn)

	return nil
}

// ServerDisconnect stops and forgets every stream, then closes the
// connection and the proto dump. Calling it again is a no-op.
func (p *P4RTClient) ServerDisconnect() {
	p.client_mu.Lock()
	streams := make([]*P4RTClientStream, 0, len(p.streams))
	for _, cStream := range p.streams {
		streams = append(streams, cStream)
	}
	p.client_mu.Unlock()

	for _, cStream := range streams {
		cStream.Stop()
	}

	p.client_mu.Lock()
	defer p.client_mu.Unlock()
	p.streams = nil

	if p.connection != nil {
		if glog.V(1) {
			glog.Infof("'%s' Disconnecting from Server\n", p)
		}
		p.connection.Close()
		p.connection = nil
	}
	p.p4rtClient = nil

	if p.dump != nil {
		if err := p.dump.Close(); err != nil {
			glog.Warningf("'%s' Closing proto dump: %s", p, err)
		}
		p.dump = nil
	}
}

func (p *P4RTClient) rpcClient() (p4_v1.P4RuntimeClient, error) {
	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	if p.p4rtClient == nil {
		return nil, fmt.Errorf("'%s' Client Not connected", p)
	}
	return p.p4rtClient, nil
}

func (p *P4RTClient) StreamChannelCreate(params *P4RTStreamParameters) error {
	p.client_mu.Lock()
	if p.p4rtClient == nil {
		p.client_mu.Unlock()
		return fmt.Errorf("'%s' Client Not connected", p)
	}

	if p.streams == nil {
		p.streams = make(map[string]*P4RTClientStream)
	}

	// A terminated stream stays registered until replaced or disconnected
	if current, found := p.streams[params.Name]; found && !current.ShouldStop() {
		p.client_mu.Unlock()
		return fmt.Errorf("'%s' Stream Name (%s) Already Initialized", p, params.Name)
	}

	// RPC and setup the stream
	ctx, cancelFunc := context.WithCancel(context.Background())
	stream, gerr := p.p4rtClient.StreamChannel(ctx)
	if gerr != nil {
		glog.Errorf("'%s' StreamChannel: %s", p, gerr)
		cancelFunc()
		p.client_mu.Unlock()
		return gerr
	}

	cStream := NewP4RTClientStream(params, stream, cancelFunc)
	// Add Stream to map, indexed by stream Name
	p.streams[params.Name] = cStream
	p.client_mu.Unlock()

	// Make sure the RX routine is happy
	upChan := make(chan bool)

	// For ever read from stream
	go func(iStream *P4RTClientStream) {
		err := errStoppedByUser

		if glog.V(2) {
			glog.Infof("'%s' '%s' Started\n", p, iStream)
		}
		upChan <- true

		for {
			/*Before we block, we test to stop*/
			if iStream.ShouldStop() {
				break
			}
			event, stream_err := iStream.stream.Recv()
			/*When we wake up, we test to stop*/
			if iStream.ShouldStop() {
				break
			}

			if stream_err != nil {
				err = stream_err
				glog.Warningf("'%s' '%s' Client Recv Error %v\n", p, iStream, stream_err)
				break
			}

			if glog.V(2) {
				glog.Infof("'%s' '%s' Received %s\n", p, iStream, event.String())
			}

			switch event.Update.(type) {
			case *p4_v1.StreamMessageResponse_Arbitration:
				iStream.QueueArbt(&P4RTArbInfo{
					Arb: event.GetArbitration(),
				})
			case *p4_v1.StreamMessageResponse_Packet:
				iStream.QueuePacket(&P4RTPacketInfo{
					Pkt: event.GetPacket(),
				})
			case *p4_v1.StreamMessageResponse_Error:
				glog.Warningf("'%s' '%s' Stream Error %s\n", p, iStream, event.GetError())
			case *p4_v1.StreamMessageResponse_Digest:
			case *p4_v1.StreamMessageResponse_IdleTimeoutNotification:
			case *p4_v1.StreamMessageResponse_Other:
			default:
				glog.Errorf("'%s' '%s' Received %s\n", p, iStream, event.String())
			}
		}

		// Cleanup the stream, lock and remove from map
		if glog.V(1) {
			glog.Infof("'%s' '%s' Exiting - calling to destroy stream\n", p, iStream)
		}
		p.streamChannelDestroyInternal(iStream, err)
		if glog.V(1) {
			glog.Infof("'%s' '%s' Exited\n", p, iStream)
		}

	}(cStream)

	// Wait for the Rx Routine to start
	if glog.V(2) {
		glog.Infof("'%s' Waiting for '%s' Go Routine\n", p, cStream)
	}
	<-upChan
	if glog.V(1) {
		glog.Infof("'%s' Successfully Spawned '%s'\n", p, cStream)
	}
	return nil
}

func (p *P4RTClient) StreamChannelGet(streamName *string) *P4RTClientStream {
	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	if p.streams != nil {
		if cStream, found := p.streams[*streamName]; found {
			return cStream
		}
	}

	return nil
}

func (p *P4RTClient) streamChannelDestroyInternal(cStream *P4RTClientStream, rErr error) {
	if glog.V(1) {
		glog.Infof("'%s' Cleaning up '%s'", p, cStream)
	}

	// The stream stays in the map so waiters can drain its queues and read
	// TermErr. ServerDisconnect removes it.

	// Notify listener
	streamParams := cStream.Params // Make a copy
	clientParams := p.Params
	// Buffered Channel, drop instead of blocking if nobody reads it
	if p.StreamTermErr != nil {
		select {
		case p.StreamTermErr <- &P4RTStreamTermErr{
			ClientParams: &clientParams,
			StreamParams: &streamParams,
			StreamErr:    rErr,
		}:
		default:
			glog.Warningf("'%s' StreamTermErr channel full", p)
		}
	}

	cStream.setTermErr(rErr)
	cStream.Stop()
}

func (p *P4RTClient) StreamChannelSendMsg(streamName *string, msg *p4_v1.StreamMessageRequest) error {
	cStream := p.StreamChannelGet(streamName)
	if cStream == nil {
		return fmt.Errorf("'%s' Could not find stream(%s)", p, *streamName)
	}

	if glog.V(2) {
		glog.Infof("'%s' '%s' StreamChannelSendMsg: %s\n", p, cStream, msg)
	}
	switch msg.Update.(type) {
	case *p4_v1.StreamMessageRequest_Arbitration:
		arb := msg.GetArbitration()
		if arb != nil {
			cStream.SetParams(arb.GetDeviceId(), arb.GetElectionId())
		}
	case *p4_v1.StreamMessageRequest_Packet:
		pkt := msg.GetPacket()
		if pkt != nil {
			if glog.V(2) {
				glog.Infof("'%s' '%s' StreamChannelSendMsg: Packet: %s\n", p, cStream, hex.EncodeToString(pkt.Payload))
			}
		}
	default:
	}

	err := cStream.stream.Send(msg)
	if err != nil {
		glog.Errorf("'%s' '%s' '%s': '%s'\n", p, cStream, msg, err)
		if errors.Is(err, io.EOF) {
			// The real status is only visible on Recv
			if termErr := cStream.TermErr(); termErr != nil && !errors.Is(termErr, io.EOF) {
				return termErr
			}
		}
		return err
	}

	return nil
}

// MasterArbitrationUpdate sends the arbitration message configured for the
// stream and waits for the switch's answer.
func (p *P4RTClient) MasterArbitrationUpdate(ctx context.Context, streamName *string) (*P4RTArbInfo, error) {
	cStream := p.StreamChannelGet(streamName)
	if cStream == nil {
		return nil, fmt.Errorf("'%s' Could not find stream(%s)", p, *streamName)
	}

	err := p.StreamChannelSendMsg(streamName, &p4_v1.StreamMessageRequest{
		Update: &p4_v1.StreamMessageRequest_Arbitration{
			Arbitration: &p4_v1.MasterArbitrationUpdate{
				DeviceId: cStream.Params.DeviceId,
				ElectionId: &p4_v1.Uint128{
					High: cStream.Params.ElectionIdH,
					Low:  cStream.Params.ElectionIdL,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return cStream.WaitArbitration(ctx)
}

func (p *P4RTClient) StreamChannelWaitPacket(ctx context.Context, streamName *string) (*P4RTPacketInfo, error) {
	cStream := p.StreamChannelGet(streamName)
	if cStream == nil {
		return nil, fmt.Errorf("'%s' Could not find stream(%s)", p, *streamName)
	}

	pktInfo, err := cStream.WaitPacket(ctx)
	if err != nil {
		if glog.V(2) {
			glog.Infof("%q Stream(%s) Error: %s\n", p, *streamName, err)
		}
		return nil, err
	}

	return pktInfo, nil
}

func (p *P4RTClient) SetForwardingPipelineConfig(ctx context.Context, msg *p4_v1.SetForwardingPipelineConfigRequest) error {
	client, err := p.rpcClient()
	if err != nil {
		return err
	}

	if glog.V(2) {
		glog.Infof("'%s' SetForwardingPipelineConfig: %s\n", p, msg)
	}
	_, err = client.SetForwardingPipelineConfig(ctx, msg)
	if err != nil {
		glog.Errorf("'%s' SetForwardingPipelineConfig: %s\n", p, err)
	}

	return err
}

func (p *P4RTClient) Write(ctx context.Context, msg *p4_v1.WriteRequest) error {
	client, err := p.rpcClient()
	if err != nil {
		return err
	}

	if glog.V(2) {
		glog.Infof("(%s) Write: %s\n", p, msg)
	}
	_, err = client.Write(ctx, msg)
	if err != nil {
		glog.Warningf("'%s' Write: %s\n", p, err)
	}

	return err
}

// Read returns every response of a Read RPC. An error ends the read; the
// responses received before it are returned with it.
func (p *P4RTClient) Read(ctx context.Context, msg *p4_v1.ReadRequest) ([]*p4_v1.ReadResponse, error) {
	client, err := p.rpcClient()
	if err != nil {
		return nil, err
	}

	if glog.V(2) {
		glog.Infof("(%s) Read: %s\n", p, msg)
	}
	stream, err := client.Read(ctx, msg)
	if err != nil {
		glog.Errorf("'%s' Read: %s\n", p, err)
		return nil, err
	}

	var responses []*p4_v1.ReadResponse
	for {
		readResp, respErr := stream.Recv()
		if errors.Is(respErr, io.EOF) {
			break
		}
		if respErr != nil {
			glog.Warningf("'%s' Read Response Err: %s", p, respErr)
			return responses, respErr
		}
		if glog.V(2) {
			glog.Infof("'%s' Read Response: %s", p, readResp)
		}
		responses = append(responses, readResp)
	}

	return responses, nil
}

// Creates and Initializes a P4RT client
func NewP4RTClient(params *P4RTClientParameters) *P4RTClient {
	client := &P4RTClient{
		Params:        *params,
		StreamTermErr: make(chan *P4RTStreamTermErr, P4RT_STREAM_TERM_CHAN_SIZE),
	}

	return client
}

// Helper function to parse the Write Errors
func P4RTWriteErrParse(err error) (int, int, []*p4_v1.Error) {
	countOK := 0
	countNotOK := 0
	var errDetails []*p4_v1.Error

	statsDetails := status1.Convert(err).Details()
	for _, statsDetail := range statsDetails {
		if se, ok := statsDetail.(*p4_v1.Error); ok {
			if glog.V(2) {
				glog.Infof("p4Server.Write Detail Error: %d Msg: %s", se.GetCanonicalCode(), se.GetMessage())
			}
			errDetails = append(errDetails, se)
			if se.GetCanonicalCode() == int32(codes.OK) {
				countOK++
			} else {
				countNotOK++
			}
		} else {
			glog.Warningf("Error, not expecting Type %T", statsDetail)
		}
	}

	if glog.V(2) {
		glog.Infof("Write Response CountOK(%d) countNotOK(%d)", countOK, countNotOK)
	}
	return countOK, countNotOK, errDetails
}
