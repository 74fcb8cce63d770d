// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package correlator matches requests to responses by (caller, query id).
// Every resolved request is journaled and a repeated key observes the
// journaled response instead of being processed again.
package correlator

import (
	"encoding/binary"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/cache"
	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/kv"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "correlator")

var journal = kv.Bucket("q")

var (
	// ErrInFlight is returned when a key is reused while its first request is unresolved.
	ErrInFlight = errors.New("query already in flight")
	// ErrNotPending is returned when resolving a key that was never begun.
	ErrNotPending = errors.New("query not pending")
)

// Key identifies a request.
type Key struct {
	Caller  ton.Address
	QueryID uint64
}

func (k Key) bytes() []byte {
	b := make([]byte, 0, 4+32+8)
	b = binary.BigEndian.AppendUint32(b, uint32(k.Caller.Workchain))
	b = append(b, k.Caller.Account[:]...)
	return binary.BigEndian.AppendUint64(b, k.QueryID)
}

// Pending is a request begun but not resolved yet.
type Pending struct {
	Key
	Kind     message.Kind
	IssuedAt uint32
}

// record is the journaled form of a response.
type record struct {
	Kind      uint8
	QueryID   uint64
	Code      uint32
	Amount    uint64
	Workchain uint32
	Account   ton.Bytes32
	Bounced   bool
}

func encode(r *message.Response) ([]byte, error) {
	return rlp.EncodeToBytes(&record{
		Kind:      uint8(r.Kind),
		QueryID:   r.QueryID,
		Code:      uint32(r.Code),
		Amount:    r.Amount,
		Workchain: uint32(r.To.Workchain),
		Account:   r.To.Account,
		Bounced:   r.Bounced,
	})
}

func decode(data []byte) (*message.Response, error) {
	var rec record
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, err
	}
	return &message.Response{
		Kind:    message.ResponseKind(rec.Kind),
		QueryID: rec.QueryID,
		Code:    exitcode.Code(rec.Code),
		Amount:  rec.Amount,
		To:      ton.Address{Workchain: ton.WorkchainID(int32(rec.Workchain)), Account: rec.Account},
		Bounced: rec.Bounced,
	}, nil
}

// Correlator keeps in-flight requests in memory and resolved ones in the journal.
type Correlator struct {
	store   kv.Store
	cache   *cache.LRU[Key, *message.Response]
	pending map[Key]Pending
}

// New creates a correlator journaling into store.
func New(store kv.Store, cacheSize int) (*Correlator, error) {
	lru, err := cache.NewLRU[Key, *message.Response](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "response cache")
	}
	return &Correlator{
		store:   store,
		cache:   lru,
		pending: make(map[Key]Pending),
	}, nil
}

// Lookup returns the journaled response for key.
func (c *Correlator) Lookup(key Key) (*message.Response, bool, error) {
	v, err := c.cache.GetOrLoad(key, func(key Key) (*message.Response, error) {
		data, err := journal.Get(c.store, key.bytes())
		if err != nil {
			return nil, err
		}
		return decode(data)
	})
	if err != nil {
		if c.store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "load response")
	}
	resp := *v
	return &resp, true, nil
}

// Begin registers a request. When key was already resolved the journaled
// response is returned and the request must not be processed.
func (c *Correlator) Begin(key Key, kind message.Kind, now uint32) (*message.Response, error) {
	if _, ok := c.pending[key]; ok {
		return nil, errors.Wrapf(ErrInFlight, "caller %v query %d", key.Caller, key.QueryID)
	}
	resp, ok, err := c.Lookup(key)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Debug("replayed query", "caller", key.Caller, "query", key.QueryID, "kind", kind)
		return resp, nil
	}
	c.pending[key] = Pending{Key: key, Kind: kind, IssuedAt: now}
	return nil, nil
}

// Resolve journals resp as the terminal response of key.
func (c *Correlator) Resolve(key Key, resp message.Response) error {
	if _, ok := c.pending[key]; !ok {
		return errors.Wrapf(ErrNotPending, "caller %v query %d", key.Caller, key.QueryID)
	}
	data, err := encode(&resp)
	if err != nil {
		return errors.Wrap(err, "encode response")
	}
	if err := journal.Put(c.store, key.bytes(), data); err != nil {
		return errors.Wrap(err, "journal response")
	}
	c.cache.Add(key, &resp)
	delete(c.pending, key)
	return nil
}

// Abort drops an in-flight request without journaling it.
func (c *Correlator) Abort(key Key) {
	delete(c.pending, key)
}

// Pending lists in-flight requests ordered by issue time then query id.
func (c *Correlator) Pending() []Pending {
	out := make([]Pending, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt != out[j].IssuedAt {
			return out[i].IssuedAt < out[j].IssuedAt
		}
		return out[i].QueryID < out[j].QueryID
	})
	return out
}

// Count returns the number of journaled responses.
func (c *Correlator) Count() (int, error) {
	it := c.store.Iterate(journal.Range())
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Error()
}
