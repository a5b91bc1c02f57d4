package probe

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x01, 0x01}
	dstMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

func decode(t *testing.T, frame *Frame) gopacket.Packet {
	t.Helper()
	data, err := frame.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
}

func TestLayerTypesRegistered(t *testing.T) {
	for lt, name := range map[gopacket.LayerType]string{
		LayerTypeProbe:     "Probe",
		LayerTypeProbeData: "ProbeData",
		LayerTypeProbeFwd:  "ProbeFwd",
	} {
		if lt.String() != name {
			t.Errorf("layer type %d is named %q, want %q", int(lt), lt.String(), name)
		}
	}
	if layers.EthernetTypeMetadata[EthernetTypeProbe].LayerType != LayerTypeProbe {
		t.Errorf("EtherType 0x%04x is not bound to the probe layer", uint16(EthernetTypeProbe))
	}
}

func TestProbeDataWireLayout(t *testing.T) {
	d := &ProbeData{
		BOS:      true,
		SwID:     0x7f,
		Port:     2,
		ByteCnt:  0x01020304,
		LastTime: 0xaabbccddeeff,
		CurTime:  0x112233445566,
		QDepth:   6,
	}
	buf := gopacket.NewSerializeBuffer()
	if err := d.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xff, 0x02,
		0x01, 0x02, 0x03, 0x04,
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
		0x00, 0x00, 0x00, 0x06,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("serialized %x, want %x", buf.Bytes(), want)
	}

	got := &ProbeData{}
	if err := got.DecodeFromBytes(want, gopacket.NilDecodeFeedback); err != nil {
		t.Fatal(err)
	}
	if !got.BOS || got.SwID != 0x7f || got.Port != 2 || got.ByteCnt != 0x01020304 ||
		got.LastTime != 0xaabbccddeeff || got.CurTime != 0x112233445566 || got.QDepth != 6 {
		t.Errorf("decoded %+v", got)
	}
	if got.NextLayerType() != LayerTypeProbeFwd {
		t.Errorf("bottom of stack should lead to ProbeFwd")
	}
}

func TestDecodeChain(t *testing.T) {
	pkt := decode(t, &Frame{
		SrcMAC: srcMAC,
		DstMAC: dstMAC,
		LinkID: 3,
		Hops: []ProbeData{
			{SwID: 4, Port: 1, ByteCnt: 100, LastTime: 10, CurTime: 20, QDepth: 1},
			{SwID: 2, Port: 3, ByteCnt: 200, LastTime: 30, CurTime: 40, QDepth: 2},
		},
		EgressSpecs: []uint8{1, 2},
	})
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		t.Fatalf("decode error: %s", errLayer.Error())
	}

	probeLayer := pkt.Layer(LayerTypeProbe)
	if probeLayer == nil {
		t.Fatal("no Probe layer")
	}
	if p := probeLayer.(*Probe); p.HopCnt != 2 || p.LinkID != 3 {
		t.Errorf("probe %+v", p)
	}

	var hops []*ProbeData
	for _, l := range pkt.Layers() {
		if d, ok := l.(*ProbeData); ok {
			hops = append(hops, d)
		}
	}
	if len(hops) != 2 {
		t.Fatalf("got %d ProbeData layers", len(hops))
	}
	if hops[0].SwID != 4 || hops[0].BOS || hops[1].SwID != 2 || !hops[1].BOS {
		t.Errorf("unexpected hops %+v %+v", hops[0], hops[1])
	}

	fwd, ok := pkt.Layer(LayerTypeProbeFwd).(*ProbeFwd)
	if !ok {
		t.Fatal("no ProbeFwd layer")
	}
	if len(fwd.EgressSpecs) < 2 || fwd.EgressSpecs[0] != 1 || fwd.EgressSpecs[1] != 2 {
		t.Errorf("egress specs %v", fwd.EgressSpecs)
	}
}

func TestNoHops(t *testing.T) {
	pkt := decode(t, &Frame{SrcMAC: srcMAC, DstMAC: dstMAC, LinkID: 1, EgressSpecs: []uint8{4, 4}})
	if pkt.Layer(LayerTypeProbeData) != nil {
		t.Error("unexpected ProbeData layer")
	}
	if pkt.Layer(LayerTypeProbeFwd) == nil {
		t.Error("hop_cnt 0 should lead to ProbeFwd")
	}
}

func TestTruncatedProbeData(t *testing.T) {
	data, err := (&Frame{
		SrcMAC: srcMAC,
		DstMAC: dstMAC,
		Hops:   []ProbeData{{SwID: 1}},
	}).Serialize()
	if err != nil {
		t.Fatal(err)
	}
	// Ethernet + Probe + part of the record
	pkt := gopacket.NewPacket(data[:14+probeLen+10], layers.LayerTypeEthernet, gopacket.Default)
	if pkt.ErrorLayer() == nil {
		t.Error("expected a decode failure")
	}
	if pkt.Layer(LayerTypeProbe) == nil {
		t.Error("Probe layer lost")
	}
	if pkt.Layer(LayerTypeProbeData) != nil {
		t.Error("truncated record decoded")
	}
}

func TestOtherEtherTypesIgnored(t *testing.T) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   srcMAC,
			SourceProtAddress: []byte{10, 0, 1, 1},
			DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
			DstProtAddress:    []byte{10, 0, 2, 2},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	pkt := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
	if pkt.Layer(LayerTypeProbe) != nil || pkt.Layer(LayerTypeProbeData) != nil {
		t.Error("ARP frame decoded as probe")
	}
}
