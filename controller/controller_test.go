package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/cisco-open/go-p4-linkmon/config"
	"github.com/cisco-open/go-p4-linkmon/diag"
	"github.com/cisco-open/go-p4-linkmon/p4info"
	"github.com/cisco-open/go-p4-linkmon/p4rt_client/p4rt_fake"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
	codes "google.golang.org/grpc/codes"
	status1 "google.golang.org/grpc/status"
)

const testP4Info = "../p4info/testdata/advanced_tunnel.p4.p4info.txt"

type recorder struct {
	mu     sync.Mutex
	events []diag.Event
	waits  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{waits: make(chan struct{}, 16)}
}

func (r *recorder) Emit(e diag.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if _, ok := e.(diag.PacketWait); ok {
		r.waits <- struct{}{}
	}
}

func (r *recorder) Events() []diag.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]diag.Event(nil), r.events...)
}

func (r *recorder) Names() []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, diag.Name(e))
	}
	return names
}

func testConfig(t *testing.T) config.Controller {
	return config.Controller{
		SwitchName:    "s1",
		Address:       p4rt_fake.Address,
		DeviceID:      0,
		ElectionIDLow: 1,
		ProtoDumpFile: filepath.Join(t.TempDir(), "logs", "s1-p4runtime-requests.txt"),
		Table:         "MyIngress.ipv4_lpm",
		MatchField:    "hdr.ipv4.dstAddr",
		Action:        "MyIngress.ipv4_forward",
		ActionParam:   "port",
		Routes:        config.DefaultRoutes(),
	}
}

func writeBMv2(t *testing.T) (string, []byte) {
	t.Helper()
	data := []byte(`{"program": "advanced_tunnel.p4"}`)
	fileName := filepath.Join(t.TempDir(), "advanced_tunnel.json")
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		t.Fatal(err)
	}
	return fileName, data
}

func newTestController(t *testing.T, sw *p4rt_fake.Switch, sink diag.Sink) (*Controller, []byte) {
	t.Helper()
	helper, err := p4info.Load(testP4Info)
	if err != nil {
		t.Fatal(err)
	}
	sw.Start()
	t.Cleanup(sw.Stop)

	bmv2, data := writeBMv2(t)
	return New(testConfig(t), helper, bmv2, sink, sw.DialOptions()...), data
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
}

func writtenPrefix(t *testing.T, req *p4_v1.WriteRequest) []byte {
	t.Helper()
	te := req.GetUpdates()[0].GetEntity().GetTableEntry()
	return te.GetMatch()[0].GetLpm().GetValue()
}

func TestSessionAndShutdown(t *testing.T) {
	sw := &p4rt_fake.Switch{
		PacketIns: []*p4_v1.PacketIn{{Payload: []byte{0xde, 0xad}}},
	}
	rec := newRecorder()
	ctrl, bmv2 := newTestController(t, sw, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	// First wait, packet-in, second wait
	waitFor(t, rec.waits, 2)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel: %s", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	want := []string{
		"PipelineInstalled",
		"RuleInstalled",
		"RuleInstalled",
		"TableDumpBegin",
		"TableEntry",
		"TableEntry",
		"PacketWait",
		"PacketIn",
		"PacketWait",
		"Shutdown",
	}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events:\n got %v\nwant %v", got, want)
	}

	events := rec.Events()
	wantEntry := diag.TableEntry{
		Table:   "MyIngress.ipv4_lpm",
		Matches: []diag.Field{{Name: "hdr.ipv4.dstAddr", Value: "(0x0a000202, 32)"}},
		Action:  "MyIngress.ipv4_forward",
		Params:  []diag.Field{{Name: "port", Value: "0x00ff"}},
	}
	if got := events[4]; !reflect.DeepEqual(got, wantEntry) {
		t.Errorf("first entry = %+v, want %+v", got, wantEntry)
	}
	if pkt := events[7].(diag.PacketIn); !bytes.Equal(pkt.Packet.GetPayload(), []byte{0xde, 0xad}) || pkt.SeqNum != 1 {
		t.Errorf("unexpected packet-in %+v", pkt)
	}

	pipelines := sw.Pipelines()
	if len(pipelines) != 1 {
		t.Fatalf("got %d pipeline pushes", len(pipelines))
	}
	p := pipelines[0]
	if p.GetAction() != p4_v1.SetForwardingPipelineConfigRequest_VERIFY_AND_COMMIT ||
		!bytes.Equal(p.GetConfig().GetP4DeviceConfig(), bmv2) ||
		len(p.GetConfig().GetP4Info().GetTables()) == 0 ||
		p.GetElectionId().GetLow() != 1 {
		t.Errorf("unexpected pipeline request %s", p)
	}

	writes := sw.Writes()
	if len(writes) != 2 {
		t.Fatalf("got %d writes", len(writes))
	}
	for i, want := range [][]byte{{10, 0, 2, 2}, {10, 0, 1, 1}} {
		if got := writtenPrefix(t, writes[i]); !bytes.Equal(got, want) {
			t.Errorf("write %d: prefix %v, want %v", i, got, want)
		}
	}

	if arbs := sw.Arbitrations(); len(arbs) != 1 || arbs[0].GetElectionId().GetLow() != 1 {
		t.Errorf("unexpected arbitrations %v", arbs)
	}
}

func TestFirstWriteFailureStillWritesSecond(t *testing.T) {
	sw := &p4rt_fake.Switch{
		WriteErrs: []error{status1.Error(codes.AlreadyExists, "entry exists")},
	}
	rec := newRecorder()
	ctrl, _ := newTestController(t, sw, rec)

	err := ctrl.Run(context.Background())

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("got %v, want *RPCError", err)
	}
	if rpcErr.Code != codes.AlreadyExists || rpcErr.Message != "entry exists" {
		t.Errorf("unexpected error %+v", rpcErr)
	}
	if rpcErr.File != "controller.go" || rpcErr.Line == 0 {
		t.Errorf("unexpected call site %s:%d", rpcErr.File, rpcErr.Line)
	}

	writes := sw.Writes()
	if len(writes) != 2 {
		t.Fatalf("got %d writes, want both routes attempted", len(writes))
	}
	if got := writtenPrefix(t, writes[1]); !bytes.Equal(got, []byte{10, 0, 1, 1}) {
		t.Errorf("second write prefix %v", got)
	}

	want := []string{"PipelineInstalled", "RuleInstalled", "RPCError"}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events:\n got %v\nwant %v", got, want)
	}
	last := rec.Events()[2].(diag.RPCError)
	if last.Code != "ALREADY_EXISTS" || last.Message != "entry exists" {
		t.Errorf("unexpected RPCError event %+v", last)
	}
}

func TestStreamFailureEndsPolling(t *testing.T) {
	sw := &p4rt_fake.Switch{
		PacketIns: []*p4_v1.PacketIn{{Payload: []byte{1}}},
		StreamErr: status1.Error(codes.Unavailable, "switch restarted"),
	}
	rec := newRecorder()
	ctrl, _ := newTestController(t, sw, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := ctrl.Run(ctx)

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != codes.Unavailable {
		t.Fatalf("got %v, want Unavailable *RPCError", err)
	}
	if rpcErr.Message != "switch restarted" || rpcErr.File != "controller.go" || rpcErr.Line == 0 {
		t.Errorf("unexpected error %+v", rpcErr)
	}

	// The packet queued before the failure is still reported
	names := rec.Names()
	want := []string{"TableEntry", "PacketWait", "PacketIn", "PacketWait", "RPCError"}
	if len(names) < len(want) || !reflect.DeepEqual(names[len(names)-len(want):], want) {
		t.Fatalf("events:\n got %v\nwant suffix %v", names, want)
	}

	events := rec.Events()
	last := events[len(events)-1].(diag.RPCError)
	wantLine := fmt.Sprintf("gRPC Error: switch restarted(UNAVAILABLE)[controller.go:%d]", rpcErr.Line)
	if got := (diag.TextFormatter{}).Format(last); len(got) != 1 || got[0] != wantLine {
		t.Errorf("rendered %q, want %q", got, wantLine)
	}
}

func TestCodeName(t *testing.T) {
	for code, want := range map[codes.Code]string{
		codes.OK:            "OK",
		codes.Canceled:      "CANCELLED",
		codes.AlreadyExists: "ALREADY_EXISTS",
		codes.Unavailable:   "UNAVAILABLE",
		codes.Code(99):      "CODE(99)",
	} {
		if got := CodeName(code); got != want {
			t.Errorf("CodeName(%d) = %q, want %q", code, got, want)
		}
	}

	err := &RPCError{Code: codes.Unavailable, Message: "down", File: "controller.go", Line: 7}
	if err.Error() != "down(UNAVAILABLE)[controller.go:7]" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestMissingBMv2File(t *testing.T) {
	sw := &p4rt_fake.Switch{}
	rec := newRecorder()
	ctrl, _ := newTestController(t, sw, rec)
	ctrl.bmv2JSONFile = filepath.Join(t.TempDir(), "missing.json")

	err := ctrl.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		t.Errorf("file error reported as RPC error: %s", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want os.ErrNotExist", err)
	}
	if len(sw.Pipelines()) != 0 {
		t.Error("pipeline pushed without a device config")
	}
	if len(rec.Events()) != 0 {
		t.Errorf("unexpected events %v", rec.Names())
	}
}

func TestRPCErrorPassesOtherErrors(t *testing.T) {
	if rpcError(nil) != nil {
		t.Error("nil error wrapped")
	}
	plain := errors.New("plain")
	if rpcError(plain) != plain {
		t.Error("plain error wrapped")
	}
	err := rpcError(status1.Error(codes.NotFound, "gone"))
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.File != "controller_test.go" {
		t.Fatalf("got %#v", err)
	}
	if status1.Code(rpcErr.Err) != codes.NotFound {
		t.Error("original status lost")
	}
}
