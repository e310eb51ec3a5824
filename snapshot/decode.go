package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformed reports a snapshot document that could not be decoded at all.
// Individual malformed peers never produce it; they are skipped or defaulted.
var ErrMalformed = errors.New("snapshot: malformed document")

// UseNumber keeps integers such as connectedSince exact instead of routing
// them through float64.
var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

// Decode parses a crawler snapshot. Accepted shapes:
//
//	{"timestamp": 1530000000, "nodes": [[host, port, ...15 fields], ...]}
//	{"timestamp": 1530000000, "nodes": {"host:port": [protocol, agent, ...13 fields], ...}}
//	[[host, port, ...], ...]
//
// Object-shaped node maps keep document order.
func Decode(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	iter := jsonAPI.BorrowIterator(data)
	defer jsonAPI.ReturnIterator(iter)

	snap := &Snapshot{}
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			switch strings.ToLower(field) {
			case "timestamp", "captured_at", "capturedat", "snapshot":
				if ts, ok := (PeerTuple{it.Read()}).Int(0); ok {
					snap.CapturedAt = ts
				}
			case "nodes", "peers":
				readPeers(it, snap)
			default:
				it.Skip()
			}
			return it.Error == nil
		})
	case jsoniter.ArrayValue:
		readPeers(iter, snap)
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrMalformed)
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, iter.Error)
	}
	return snap, nil
}

// LoadFile reads and decodes the snapshot at path.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return snap, nil
}

func readPeers(it *jsoniter.Iterator, snap *Snapshot) {
	switch it.WhatIsNext() {
	case jsoniter.ArrayValue:
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			if fields, ok := it.Read().([]any); ok {
				snap.Peers = append(snap.Peers, PeerTuple(fields))
			} else {
				snap.Skipped++
			}
			return it.Error == nil
		})
	case jsoniter.ObjectValue:
		it.ReadObjectCB(func(it *jsoniter.Iterator, address string) bool {
			fields, ok := it.Read().([]any)
			if !ok {
				snap.Skipped++
				return it.Error == nil
			}
			if len(fields) >= TupleFields {
				snap.Peers = append(snap.Peers, PeerTuple(fields))
				return it.Error == nil
			}
			host, port := splitAddress(address)
			tuple := make(PeerTuple, 0, len(fields)+2)
			tuple = append(tuple, host, port)
			tuple = append(tuple, fields...)
			snap.Peers = append(snap.Peers, tuple)
			return it.Error == nil
		})
	case jsoniter.NilValue:
		it.ReadNil()
	default:
		it.Skip()
	}
}

// splitAddress splits a "host:port" map key. IPv6 hosts keep their brackets so
// the rejoined address stays unambiguous.
func splitAddress(address string) (string, string) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return address, ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host, port
}
