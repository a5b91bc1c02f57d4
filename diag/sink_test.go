package diag

import (
	"bytes"
	"strings"
	"testing"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
)

func TestTextFormatterLines(t *testing.T) {
	tests := []struct {
		event Event
		want  []string
	}{
		{PipelineInstalled{Switch: "s1"}, []string{"Installed P4 Program using SetForwardingPipelineConfig on s1"}},
		{RuleInstalled{Switch: "s1"}, []string{"Installed ingress forwarding rule on s1"}},
		{TableDumpBegin{Switch: "s1"}, []string{"", "----- Reading tables rules for s1 -----"}},
		{PacketWait{}, []string{"Wait for packet in"}},
		{Shutdown{}, []string{" Shutting down."}},
		{RPCError{Code: "UNAVAILABLE", Message: "connection refused", File: "controller.go", Line: 42},
			[]string{"gRPC Error: connection refused(UNAVAILABLE)[controller.go:42]"}},
		{Sniffing{Iface: "eth0"}, []string{"sniffing on eth0"}},
		{ProbeBegin{Hops: 1}, []string{""}},
		{HopReport{SwitchID: 1, Port: 2, Utilization: 8000, QDepth: 6}, []string{"Switch 1 - Port 2: 8000 Mbps, Qdepth: 6"}},
		{HopReport{SwitchID: 3, Port: 1, Utilization: 0, QDepth: 0}, []string{"Switch 3 - Port 1: 0 Mbps, Qdepth: 0"}},
		{RerouteSuggestion{LinkID: 0, Suggestion: "URLLC: should change S1-S3-S5-S6 to S1-S3-S4-S6"},
			[]string{"==URLLC: should change S1-S3-S5-S6 to S1-S3-S4-S6=="}},
	}

	for _, tt := range tests {
		got := TextFormatter{}.Format(tt.event)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %q, want %q", Name(tt.event), got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: line %d got %q, want %q", Name(tt.event), i, got[i], tt.want[i])
			}
		}
	}
}

func TestTableEntryLine(t *testing.T) {
	e := TableEntry{
		Table:   "MyIngress.ipv4_lpm",
		Matches: []Field{{Name: "hdr.ipv4.dstAddr", Value: "(0x0a000202, 32)"}},
		Action:  "MyIngress.ipv4_forward",
		Params:  []Field{{Name: "port", Value: "0x00ff"}},
	}
	got := TextFormatter{}.Format(e)
	want := "MyIngress.ipv4_lpm: hdr.ipv4.dstAddr(0x0a000202, 32)-> action:MyIngress.ipv4_forward with parameters: port 0x00ff"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterSinkPacketIn(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, nil)
	sink.Emit(PacketIn{SeqNum: 1, Packet: &p4_v1.PacketIn{Payload: []byte("probe")}})

	out := buf.String()
	if !strings.HasPrefix(out, "PACKET IN received\n") {
		t.Errorf("missing marker line: %q", out)
	}
	if !strings.Contains(out, "probe") {
		t.Errorf("missing payload: %q", out)
	}
}

type nothingFormatter struct{}

func (nothingFormatter) Format(Event) []string { return nil }

func TestWriterSinkCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, nothingFormatter{})
	sink.Emit(Shutdown{})
	Discard.Emit(Shutdown{})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFormatUtilization(t *testing.T) {
	for in, want := range map[float64]string{0: "0", 1000: "1000", 12.5: "12.5", 4.99: "4.99"} {
		if got := FormatUtilization(in); got != want {
			t.Errorf("FormatUtilization(%v) = %q, want %q", in, got, want)
		}
	}
}
