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

// Package controller drives the tunnel exercise against one P4Runtime
// switch: claim mastership, push the pipeline, install the forwarding rules,
// dump the tables and then report packet-ins until cancelled.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cisco-open/go-p4-linkmon/config"
	"github.com/cisco-open/go-p4-linkmon/diag"
	"github.com/cisco-open/go-p4-linkmon/p4info"
	"github.com/cisco-open/go-p4-linkmon/p4rt_client"
	"github.com/golang/glog"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
)

type Controller struct {
	cfg          config.Controller
	helper       *p4info.Helper
	bmv2JSONFile string
	sink         diag.Sink
	dialOpts     []grpc.DialOption
	clientMap    *p4rt_client.P4RTClientMap
}

// New returns a controller for the switch described by cfg. dialOpts are
// appended to the client's own dial options.
func New(cfg config.Controller, helper *p4info.Helper, bmv2JSONFile string,
	sink diag.Sink, dialOpts ...grpc.DialOption) *Controller {
	if sink == nil {
		sink = diag.Discard
	}
	return &Controller{
		cfg:          cfg,
		helper:       helper,
		bmv2JSONFile: bmv2JSONFile,
		sink:         sink,
		dialOpts:     dialOpts,
		clientMap:    p4rt_client.NewP4RTClientMap(),
	}
}

func (c *Controller) streamName() string {
	return c.cfg.SwitchName
}

func (c *Controller) electionID() *p4_v1.Uint128 {
	return &p4_v1.Uint128{High: c.cfg.ElectionIDHigh, Low: c.cfg.ElectionIDLow}
}

// Run executes the session until ctx is cancelled or a step fails. A
// cancelled context is a normal shutdown and returns nil. A failed RPC is
// reported on the sink and returned as an *RPCError. Every switch
// connection is closed before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.clientMap.ShutdownAll()

	err := c.session(ctx)
	if ctx.Err() != nil {
		c.sink.Emit(diag.Shutdown{})
		return nil
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		c.sink.Emit(rpcErr.Event())
	} else if err != nil {
		glog.Errorf("'%s' session failed: %s", c.cfg.SwitchName, err)
	}
	return err
}

func (c *Controller) session(ctx context.Context) error {
	params := &p4rt_client.P4RTClientParameters{
		Name:          c.cfg.SwitchName,
		Address:       c.cfg.Address,
		ProtoDumpFile: c.cfg.ProtoDumpFile,
		Streams: []p4rt_client.P4RTStreamParameters{
			{
				Name:        c.streamName(),
				DeviceId:    c.cfg.DeviceID,
				ElectionIdH: c.cfg.ElectionIDHigh,
				ElectionIdL: c.cfg.ElectionIDLow,
				PacketQSize: c.cfg.PacketQueueSize,
			},
		},
	}

	client, err := c.clientMap.ClientConnect(params, c.dialOpts...)
	if err != nil {
		return rpcError(err)
	}

	if err := c.claimMastership(ctx, client); err != nil {
		return err
	}
	if err := c.installPipeline(ctx, client); err != nil {
		return err
	}
	if err := c.installRules(ctx, client); err != nil {
		return err
	}
	if err := c.dumpTables(ctx, client); err != nil {
		return err
	}
	return c.pollPacketIn(ctx, client)
}

func (c *Controller) claimMastership(ctx context.Context, client *p4rt_client.P4RTClient) error {
	name := c.streamName()
	arbInfo, err := client.MasterArbitrationUpdate(ctx, &name)
	if err != nil {
		return rpcError(err)
	}

	if code := codes.Code(arbInfo.Arb.GetStatus().GetCode()); code != codes.OK {
		glog.Warningf("'%s' is not primary: %s %s", client, code, arbInfo.Arb.GetStatus().GetMessage())
	} else {
		glog.Infof("'%s' Got Primary SeqNum(%d) %s", client, arbInfo.SeqNum, arbInfo.Arb)
	}
	return nil
}

func (c *Controller) installPipeline(ctx context.Context, client *p4rt_client.P4RTClient) error {
	deviceConfig, err := os.ReadFile(c.bmv2JSONFile)
	if err != nil {
		return fmt.Errorf("reading BMv2 JSON: %w", err)
	}

	err = client.SetForwardingPipelineConfig(ctx, &p4_v1.SetForwardingPipelineConfigRequest{
		DeviceId:   c.cfg.DeviceID,
		ElectionId: c.electionID(),
		Action:     p4_v1.SetForwardingPipelineConfigRequest_VERIFY_AND_COMMIT,
		Config: &p4_v1.ForwardingPipelineConfig{
			P4Info:         c.helper.P4Info,
			P4DeviceConfig: deviceConfig,
		},
	})
	if err != nil {
		return rpcError(err)
	}

	c.sink.Emit(diag.PipelineInstalled{Switch: c.cfg.SwitchName})
	return nil
}

func (c *Controller) routeEntry(route config.Route) *p4info.TableEntry {
	return &p4info.TableEntry{
		Table: c.cfg.Table,
		Match: map[string]p4info.MatchValue{
			c.cfg.MatchField: p4info.LPM{Value: route.DstAddr, PrefixLen: route.PrefixLen},
		},
		Action: c.cfg.Action,
		ActionParams: map[string]interface{}{
			c.cfg.ActionParam: route.Port,
		},
	}
}

// installRules writes every configured route, in order. A failed write does
// not stop the next one; the first failure is returned once all were tried.
func (c *Controller) installRules(ctx context.Context, client *p4rt_client.P4RTClient) error {
	var firstErr error
	for _, route := range c.cfg.Routes {
		if err := c.writeRoute(ctx, client, route); err != nil {
			glog.Errorf("'%s' route %s/%d: %s", client, route.DstAddr, route.PrefixLen, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.sink.Emit(diag.RuleInstalled{Switch: c.cfg.SwitchName})
	}
	return firstErr
}

func (c *Controller) writeRoute(ctx context.Context, client *p4rt_client.P4RTClient, route config.Route) error {
	entry, err := c.helper.BuildTableEntry(c.routeEntry(route))
	if err != nil {
		return err
	}

	err = client.Write(ctx, &p4_v1.WriteRequest{
		DeviceId:   c.cfg.DeviceID,
		ElectionId: c.electionID(),
		Updates: []*p4_v1.Update{
			{
				Type: p4_v1.Update_INSERT,
				Entity: &p4_v1.Entity{
					Entity: &p4_v1.Entity_TableEntry{TableEntry: entry},
				},
			},
		},
	})
	if err != nil {
		countOK, countNotOK, errDetails := p4rt_client.P4RTWriteErrParse(err)
		if glog.V(2) {
			glog.Infof("Write Partial Errors %d/%d: %s", countOK, countNotOK, errDetails)
		}
		return rpcError(err)
	}
	return nil
}

func (c *Controller) dumpTables(ctx context.Context, client *p4rt_client.P4RTClient) error {
	c.sink.Emit(diag.TableDumpBegin{Switch: c.cfg.SwitchName})

	responses, err := client.Read(ctx, &p4_v1.ReadRequest{
		DeviceId: c.cfg.DeviceID,
		Entities: []*p4_v1.Entity{
			{Entity: &p4_v1.Entity_TableEntry{TableEntry: &p4_v1.TableEntry{}}},
		},
	})
	if err != nil {
		return rpcError(err)
	}

	for _, resp := range responses {
		for _, entity := range resp.GetEntities() {
			if te := entity.GetTableEntry(); te != nil {
				c.sink.Emit(c.describeEntry(te))
			}
		}
	}
	return nil
}

// describeEntry names the parts of an entry with the p4info. Ids the
// p4info does not know are printed as numbers.
func (c *Controller) describeEntry(te *p4_v1.TableEntry) diag.TableEntry {
	tableName, err := c.helper.TableName(te.GetTableId())
	if err != nil {
		tableName = fmt.Sprint(te.GetTableId())
	}
	ev := diag.TableEntry{Table: tableName}

	for _, m := range te.GetMatch() {
		name, err := c.helper.MatchFieldName(tableName, m.GetFieldId())
		if err != nil {
			name = fmt.Sprint(m.GetFieldId())
		}
		ev.Matches = append(ev.Matches, diag.Field{Name: name, Value: p4info.FormatFieldMatch(m)})
	}

	action := te.GetAction().GetAction()
	if action == nil {
		return ev
	}
	actionName, err := c.helper.ActionName(action.GetActionId())
	if err != nil {
		actionName = fmt.Sprint(action.GetActionId())
	}
	ev.Action = actionName
	for _, p := range action.GetParams() {
		name, err := c.helper.ActionParamName(actionName, p.GetParamId())
		if err != nil {
			name = fmt.Sprint(p.GetParamId())
		}
		ev.Params = append(ev.Params, diag.Field{Name: name, Value: p4info.FormatBytes(p.GetValue())})
	}
	return ev
}

// pollPacketIn reports packet-ins until ctx is done or the stream ends.
// Packets queued before the stream ended are still reported.
func (c *Controller) pollPacketIn(ctx context.Context, client *p4rt_client.P4RTClient) error {
	name := c.streamName()
	for {
		c.sink.Emit(diag.PacketWait{})
		pktInfo, err := client.StreamChannelWaitPacket(ctx, &name)
		if err != nil {
			if termErr := streamTermErr(client); termErr != nil {
				err = termErr
			}
			return rpcError(err)
		}
		c.sink.Emit(diag.PacketIn{SeqNum: pktInfo.SeqNum, Packet: pktInfo.Pkt})
	}
}

// streamTermErr drains the client's termination notices and returns the
// gRPC error of the last stream that failed, if any.
func streamTermErr(client *p4rt_client.P4RTClient) error {
	var err error
	for {
		select {
		case termInfo := <-client.StreamTermErr:
			glog.Warningf("'%s' Stream terminated: %s", client, termInfo)
			var se grpcStatus
			if errors.As(termInfo.StreamErr, &se) {
				err = termInfo.StreamErr
			}
		default:
			return err
		}
	}
}
