package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"nodeboard/snapshot"
)

func TestPlainSurfacePrintsOnChangeOnly(t *testing.T) {
	var out bytes.Buffer
	s := NewPlainSurface(&out, time.UTC, 0, false)
	p := newTestProjector(t,
		testPeer("1.2.3.4", "/Satoshi:0.20/", testNow.Add(-time.Hour), "1"),
		testPeer("5.6.7.8", "/Satoshi:0.21/", testNow.Add(-time.Minute), "3"),
	)
	s.Refresh()
	if out.Len() != 0 {
		t.Fatalf("expected nothing before Bind")
	}
	s.Bind(p)
	s.Refresh()
	first := out.String()
	if !strings.Contains(first, "Showing 2 nodes") || !strings.Contains(first, "5.6.7.8:8333") {
		t.Fatalf("unexpected first render:\n%s", first)
	}
	s.Refresh()
	if out.String() != first {
		t.Fatalf("expected unchanged projection not to be re-printed")
	}

	p.ApplyFilterQuery("0.20")
	s.Refresh()
	second := strings.TrimPrefix(out.String(), first)
	if !strings.Contains(second, `Showing 1 of 2 nodes matching "0.20"`) || strings.Contains(second, "5.6.7.8") {
		t.Fatalf("unexpected filtered render:\n%s", second)
	}
}

func TestPlainSurfacePrintsEachSnapshotWithoutTimestamp(t *testing.T) {
	var out bytes.Buffer
	s := NewPlainSurface(&out, time.UTC, 0, false)
	p := newTestProjector(t)
	s.Bind(p)

	p.SetSnapshot(&snapshot.Snapshot{Peers: []snapshot.PeerTuple{testPeer("1.1.1.1", "/Satoshi:0.20/", testNow, "1")}})
	s.Refresh()
	p.SetSnapshot(&snapshot.Snapshot{Peers: []snapshot.PeerTuple{testPeer("9.9.9.9", "/Satoshi:0.21/", testNow, "1")}})
	s.Refresh()

	text := out.String()
	if !strings.Contains(text, "1.1.1.1:8333") || !strings.Contains(text, "9.9.9.9:8333") {
		t.Fatalf("expected both snapshots to be printed:\n%s", text)
	}
	if strings.Count(text, "Snapshot: capture time unknown\nShowing 1 node\n") != 2 {
		t.Fatalf("expected unknown capture time header for each snapshot:\n%s", text)
	}

	before := out.Len()
	p.Refresh()
	s.Refresh()
	if out.Len() != before {
		t.Fatalf("expected clock refresh not to be re-printed")
	}
}

func TestPlainSurfaceStop(t *testing.T) {
	var out bytes.Buffer
	s := NewPlainSurface(&out, time.UTC, 100, true)
	s.Bind(newTestProjector(t, testPeer("1.2.3.4", "/Satoshi:0.20/", testNow, "1")))
	s.Stop()
	s.Stop()
	select {
	case <-s.Done():
	default:
		t.Fatalf("expected Done to be closed")
	}
	s.Refresh()
	if out.Len() != 0 {
		t.Fatalf("expected no output after stop")
	}
	if s.SystemWriter() != &out {
		t.Fatalf("expected system writer to be the output writer")
	}
}
