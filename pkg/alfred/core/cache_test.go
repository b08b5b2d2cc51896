package core

import (
	"testing"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/types"
)

func rec(mac byte, typ uint8, payload string) types.DatasetRecord {
	return types.DatasetRecord{
		SourceMAC: types.MACAddress{mac, mac, mac, mac, mac, mac},
		Type:      typ,
		Version:   1,
		Payload:   []byte(payload),
	}
}

func TestCache_UpsertRemoteFirstHand(t *testing.T) {
	c := NewDatasetCache(nil, nil)
	r := rec(0xaa, 64, "hello")
	changed := c.UpsertRemote(r, r.SourceMAC, time.Now())
	if !changed {
		t.Fatal("expected new entry to report changed")
	}

	entries := c.Iterate()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].DataSource != types.FirstHand {
		t.Fatalf("expected FIRST_HAND, got %v", entries[0].DataSource)
	}
}

func TestCache_UpsertRemoteSynced(t *testing.T) {
	c := NewDatasetCache(nil, nil)
	r := rec(0xaa, 64, "hello")
	otherSender := types.MACAddress{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}
	c.UpsertRemote(r, otherSender, time.Now())

	entries := c.Iterate()
	if entries[0].DataSource != types.Synced {
		t.Fatalf("expected SYNCED, got %v", entries[0].DataSource)
	}
}

func TestCache_LocalNeverOverwritten(t *testing.T) {
	c := NewDatasetCache(nil, nil)
	selfMAC := types.MACAddress{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	c.UpsertLocal(selfMAC, 64, []byte("mine"), time.Now())

	r := types.DatasetRecord{SourceMAC: selfMAC, Type: 64, Version: 1, Payload: []byte("not-mine")}
	changed := c.UpsertRemote(r, selfMAC, time.Now())
	if changed {
		t.Fatal("expected LOCAL entry to reject the remote update")
	}

	entries := c.Iterate()
	if len(entries) != 1 || string(entries[0].Payload) != "mine" {
		t.Fatalf("LOCAL entry was mutated: %#v", entries)
	}
	if entries[0].DataSource != types.Local {
		t.Fatalf("expected LOCAL, got %v", entries[0].DataSource)
	}
}

func TestCache_ChangedCallbackFiresOnPayloadDiff(t *testing.T) {
	var notified []uint8
	c := NewDatasetCache(func(t uint8) { notified = append(notified, t) }, nil)
	r := rec(0xaa, 64, "v1")
	c.UpsertRemote(r, r.SourceMAC, time.Now())

	r2 := rec(0xaa, 64, "v2")
	changed := c.UpsertRemote(r2, r2.SourceMAC, time.Now())
	if !changed {
		t.Fatal("expected payload change to report changed")
	}
	if len(notified) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notified))
	}

	changed = c.UpsertRemote(r2, r2.SourceMAC, time.Now())
	if changed {
		t.Fatal("expected identical re-push to report unchanged")
	}
	if len(notified) != 2 {
		t.Fatalf("expected no additional notification, got %d total", len(notified))
	}
}

func TestCache_OneEntryPerKey(t *testing.T) {
	c := NewDatasetCache(nil, nil)
	r := rec(0xaa, 64, "a")
	c.UpsertRemote(r, r.SourceMAC, time.Now())
	c.UpsertRemote(rec(0xaa, 64, "b"), r.SourceMAC, time.Now())
	if c.Len() != 1 {
		t.Fatalf("expected exactly one entry per key, got %d", c.Len())
	}
}

func TestCache_SweepRemovesStaleNonLocal(t *testing.T) {
	c := NewDatasetCache(nil, nil)
	old := time.Now().Add(-time.Hour)
	r := rec(0xaa, 64, "stale")
	key := types.DatasetKey{SourceMAC: r.SourceMAC, Type: r.Type}
	c.entries[key] = types.Dataset{SourceMAC: r.SourceMAC, Type: r.Type, Payload: r.Payload, DataSource: types.Synced, LastSeen: old}

	selfMAC := types.MACAddress{0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc}
	c.UpsertLocal(selfMAC, 65, []byte("keep"), old)

	c.Sweep(time.Now(), time.Minute)

	entries := c.Iterate()
	if len(entries) != 1 || entries[0].DataSource != types.Local {
		t.Fatalf("expected only the LOCAL entry to survive sweep, got %#v", entries)
	}
}
