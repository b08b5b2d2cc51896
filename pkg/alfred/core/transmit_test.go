package core

import (
	"net"
	"testing"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/definition"
	"github.com/openmesh/alfred/pkg/alfred/types"
	"github.com/openmesh/alfred/pkg/alfred/wire"
)

type recordedFrame struct {
	iface *types.Interface
	dest  net.IP
	frame []byte
}

type fakeTransport struct {
	sent []recordedFrame
}

func (f *fakeTransport) SendFrame(iface *types.Interface, dest net.IP, frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, recordedFrame{iface: iface, dest: dest, frame: cp})
	return nil
}

func newTestTransmitter(maxPayload int) (*Transmitter, *DatasetCache, *fakeTransport) {
	cfg := types.DefaultConfiguration(types.Master)
	cfg.MaxPayload = maxPayload
	cache := NewDatasetCache(nil, nil)
	transport := &fakeTransport{}
	log := definition.NewDefaultLogger()
	log.ToggleDebug(false)
	return NewTransmitter(cfg, cache, transport, log, nil), cache, transport
}

func pushDataFrames(t *testing.T, frames []recordedFrame) ([]types.PushDataBody, *types.StatusTxEndBody) {
	t.Helper()
	var pushes []types.PushDataBody
	var txend *types.StatusTxEndBody
	for _, rf := range frames {
		h, body, err := wire.DecodeHeader(rf.frame)
		if err != nil {
			t.Fatalf("undecodable frame sent: %v", err)
		}
		switch h.Type {
		case types.PushData:
			p, err := wire.DecodePushData(body)
			if err != nil {
				t.Fatalf("undecodable push_data: %v", err)
			}
			pushes = append(pushes, p)
		case types.StatusTxEnd:
			e, err := wire.DecodeStatusTxEnd(body)
			if err != nil {
				t.Fatalf("undecodable txend: %v", err)
			}
			txend = &e
		default:
			t.Fatalf("unexpected frame type sent: %v", h.Type)
		}
	}
	return pushes, txend
}

func TestTransmitter_SinglePacketSync(t *testing.T) {
	// Scenario 2.
	x, cache, transport := newTestTransmitter(types.MaxPayload)
	selfMAC := types.MACAddress{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	cache.UpsertLocal(selfMAC, 64, []byte("hello"), time.Now())

	iface := &types.Interface{Name: "eth0"}
	dest := net.ParseIP("fe80::2")
	if err := x.Push(iface, dest, types.Local, types.NoFilter, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pushes, txend := pushDataFrames(t, transport.sent)
	if len(pushes) != 1 {
		t.Fatalf("expected 1 push_data packet, got %d", len(pushes))
	}
	if txend == nil || txend.Seqno != 1 {
		t.Fatalf("expected txend with seqno=1, got %#v", txend)
	}
	if len(pushes[0].Records) != 1 || string(pushes[0].Records[0].Payload) != "hello" {
		t.Fatalf("unexpected records: %#v", pushes[0].Records)
	}
}

func TestTransmitter_Fragmentation(t *testing.T) {
	// Scenario 3: 200 records of 512-byte payloads, MAX_PAYLOAD=1500.
	x, cache, transport := newTestTransmitter(1500)
	for i := 0; i < 200; i++ {
		mac := types.MACAddress{byte(i), byte(i >> 8), 0, 0, 0, 1}
		cache.UpsertLocal(mac, 1, make([]byte, 512), time.Now())
	}

	if err := x.Push(&types.Interface{Name: "eth0"}, net.ParseIP("fe80::2"), types.Local, types.NoFilter, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pushes, txend := pushDataFrames(t, transport.sent)
	totalRecords := 0
	for _, p := range pushes {
		totalRecords += len(p.Records)
	}
	if totalRecords != 200 {
		t.Fatalf("expected 200 records reassembled, got %d", totalRecords)
	}
	if txend == nil || int(txend.Seqno) != len(pushes) {
		t.Fatalf("expected txend seqno to equal packet count %d, got %#v", len(pushes), txend)
	}
}

func TestTransmitter_FilteredRequestAlwaysGetsTerminator(t *testing.T) {
	// Scenario 6: a filtered request with zero matching records still
	// gets a STATUS_TXEND so the requester can unblock.
	x, _, transport := newTestTransmitter(types.MaxPayload)
	if err := x.Push(&types.Interface{Name: "eth0"}, net.ParseIP("fe80::2"), types.Synced, 66, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pushes, txend := pushDataFrames(t, transport.sent)
	if len(pushes) != 0 {
		t.Fatalf("expected no push_data packets, got %d", len(pushes))
	}
	if txend == nil || txend.Seqno != 0 || txend.TxID != 42 {
		t.Fatalf("expected empty txend with tx_id=42 seqno=0, got %#v", txend)
	}
}

func TestTransmitter_NoFilterEmptyCacheSendsNoTerminator(t *testing.T) {
	x, _, transport := newTestTransmitter(types.MaxPayload)
	if err := x.Push(&types.Interface{Name: "eth0"}, net.ParseIP("fe80::2"), types.FirstHand, types.NoFilter, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transport.sent) != 0 {
		t.Fatalf("expected no frames sent for empty unfiltered sync, got %d", len(transport.sent))
	}
}

func TestTransmitter_SourceLevelFiltering(t *testing.T) {
	x, cache, transport := newTestTransmitter(types.MaxPayload)
	local := types.MACAddress{1, 1, 1, 1, 1, 1}
	synced := types.MACAddress{2, 2, 2, 2, 2, 2}
	cache.UpsertLocal(local, 1, []byte("local"), time.Now())
	cache.UpsertRemote(types.DatasetRecord{SourceMAC: synced, Type: 1, Version: 1, Payload: []byte("synced")}, types.MACAddress{9, 9, 9, 9, 9, 9}, time.Now())

	if err := x.Push(&types.Interface{Name: "eth0"}, net.ParseIP("fe80::2"), types.FirstHand, types.NoFilter, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pushes, _ := pushDataFrames(t, transport.sent)
	var payloads []string
	for _, p := range pushes {
		for _, r := range p.Records {
			payloads = append(payloads, string(r.Payload))
		}
	}
	if len(payloads) != 1 || payloads[0] != "local" {
		t.Fatalf("expected only the LOCAL record at max_source=FIRST_HAND, got %v", payloads)
	}
}

func TestTransmitter_OversizedRecordSkipped(t *testing.T) {
	x, cache, transport := newTestTransmitter(100)
	mac := types.MACAddress{1, 1, 1, 1, 1, 1}
	cache.UpsertLocal(mac, 1, make([]byte, 1000), time.Now())

	if err := x.Push(&types.Interface{Name: "eth0"}, net.ParseIP("fe80::2"), types.Local, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pushes, txend := pushDataFrames(t, transport.sent)
	if len(pushes) != 0 {
		t.Fatalf("expected the oversized record to be skipped, got %d packets", len(pushes))
	}
	if txend == nil || txend.Seqno != 0 {
		t.Fatalf("expected empty txend since the request had a concrete type filter, got %#v", txend)
	}
}

func TestTransmitter_AnnounceMaster(t *testing.T) {
	x, _, transport := newTestTransmitter(types.MaxPayload)
	iface := &types.Interface{Name: "eth0", MulticastAddr: net.ParseIP("ff02::1")}
	if err := x.AnnounceMaster(iface); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 frame sent, got %d", len(transport.sent))
	}
	h, body, err := wire.DecodeHeader(transport.sent[0].frame)
	if err != nil || h.Type != types.AnnounceMaster || len(body) != 0 {
		t.Fatalf("unexpected announce frame: %#v err=%v", h, err)
	}
	if !transport.sent[0].dest.Equal(iface.MulticastAddr) {
		t.Fatalf("expected announce sent to multicast addr, got %v", transport.sent[0].dest)
	}
}

func TestTransmitter_PushLocalDataNoBestServer(t *testing.T) {
	x, cache, transport := newTestTransmitter(types.MaxPayload)
	cache.UpsertLocal(types.MACAddress{1, 1, 1, 1, 1, 1}, 1, []byte("x"), time.Now())
	ok := x.PushLocalData(&types.Interface{Name: "eth0"}, nil)
	if ok {
		t.Fatal("expected no-op when best server is unset")
	}
	if len(transport.sent) != 0 {
		t.Fatalf("expected nothing sent, got %d frames", len(transport.sent))
	}
}
