// Package transport implements PeerComm: a rank-addressed connection map
// sending PrimeChunk batches to remote workers and receiving FactorRecord
// batches back, using a bufio-framed Send/Recv idiom over a net.Conn map
// keyed by peer rank.
package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/term"
)

// RemoteChunkEnvelope is the wire record for a chunk dispatched to rank.
type RemoteChunkEnvelope struct {
	Rank   int
	Primes []uint64
}

// RemoteFactorEnvelope is the wire record for a factor batch returned from
// rank.
type RemoteFactorEnvelope struct {
	Rank    int
	Records []sink.Record
}

// PeerComm holds one connection per remote peer, addressed by rank.
type PeerComm struct {
	Rank  int
	mu    sync.RWMutex
	Socks map[int]net.Conn
}

// New creates a PeerComm for the local rank with no connections yet.
func New(rank int) *PeerComm {
	return &PeerComm{Rank: rank, Socks: make(map[int]net.Conn)}
}

// AddPeer registers a connection to the given remote rank.
func (c *PeerComm) AddPeer(rank int, conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Socks[rank] = conn
}

func (c *PeerComm) peerConn(rank int) (net.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.Socks[rank]
	if !ok {
		return nil, fmt.Errorf("transport: no connection to rank %d", rank)
	}
	return conn, nil
}

// SendChunk frames and writes a prime chunk to the given peer rank.
func (c *PeerComm) SendChunk(rank int, primes []uint64) error {
	conn, err := c.peerConn(rank)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(conn)
	if err := binary.Write(w, binary.BigEndian, uint64(len(primes))); err != nil {
		return fmt.Errorf("transport: write chunk length: %w", err)
	}
	for _, p := range primes {
		if err := binary.Write(w, binary.BigEndian, p); err != nil {
			return fmt.Errorf("transport: write prime: %w", err)
		}
	}
	return w.Flush()
}

// RecvChunk reads a prime chunk written by SendChunk from r.
func (c *PeerComm) RecvChunk(r *bufio.Reader) ([]uint64, error) {
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("transport: read chunk length: %w", err)
	}
	primes := make([]uint64, n)
	for i := range primes {
		if err := binary.Read(r, binary.BigEndian, &primes[i]); err != nil {
			return nil, fmt.Errorf("transport: read prime: %w", err)
		}
	}
	return primes, nil
}

// SendFactors frames and writes a batch of factor records to rank.
func (c *PeerComm) SendFactors(rank int, records []sink.Record) error {
	conn, err := c.peerConn(rank)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(conn)
	if err := binary.Write(w, binary.BigEndian, uint64(len(records))); err != nil {
		return fmt.Errorf("transport: write factor count: %w", err)
	}
	for _, rec := range records {
		if err := writeRecord(w, rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

// RecvFactors reads a batch of factor records written by SendFactors.
func (c *PeerComm) RecvFactors(r *bufio.Reader) ([]sink.Record, error) {
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("transport: read factor count: %w", err)
	}
	records := make([]sink.Record, n)
	for i := range records {
		rec, err := readRecord(r)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

func writeRecord(w io.Writer, rec sink.Record) error {
	fields := []uint64{rec.Prime, rec.Term.K, rec.Term.N}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return fmt.Errorf("transport: write record field: %w", err)
		}
	}
	if err := binary.Write(w, binary.BigEndian, rec.Term.C); err != nil {
		return fmt.Errorf("transport: write record term c: %w", err)
	}
	return binary.Write(w, binary.BigEndian, rec.SignOrC)
}

func readRecord(r io.Reader) (sink.Record, error) {
	var rec sink.Record
	var prime, k, n uint64
	for _, dst := range []*uint64{&prime, &k, &n} {
		if err := binary.Read(r, binary.BigEndian, dst); err != nil {
			return rec, fmt.Errorf("transport: read record field: %w", err)
		}
	}
	var c, signOrC int32
	if err := binary.Read(r, binary.BigEndian, &c); err != nil {
		return rec, fmt.Errorf("transport: read record term c: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &signOrC); err != nil {
		return rec, fmt.Errorf("transport: read record sign: %w", err)
	}
	rec.Prime = prime
	rec.Term = term.Key{K: k, N: n, C: c}
	rec.SignOrC = signOrC
	return rec, nil
}
