// Package ledger holds the authoritative in-process mapping from host trade
// ids to the last-known broker order snapshots.
package ledger

import (
	"errors"
	"sync"

	"zorrobridge/internal/domain"
)

// ErrNotFound is returned when a trade id has no ledger entry.
var ErrNotFound = errors.New("ledger: trade id not found")

// Ledger maps integer host trade ids to order records. Entries are
// append-only for the session's duration; Reset wipes everything at logout.
// Trade ids come only from NextID (or Claim, for ids reconstructed from a
// correlation token), which keeps trade id <-> broker order id a bijection.
type Ledger struct {
	mu     sync.Mutex
	next   int
	orders map[int]*domain.Order
}

// New creates an empty Ledger. Trade ids start at 1; 0 is the host's
// sentinel for "no trade".
func New() *Ledger {
	return &Ledger{
		next:   1,
		orders: make(map[int]*domain.Order),
	}
}

// NextID allocates a fresh trade id.
func (l *Ledger) NextID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	return id
}

// Claim reserves a specific trade id, advancing the allocator past it so a
// later NextID can never collide. Used when a status query reconstructs an
// id the host remembers but this session has not seen.
func (l *Ledger) Claim(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id >= l.next {
		l.next = id + 1
	}
}

// Put records the order snapshot under the given trade id.
func (l *Ledger) Put(id int, o *domain.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *o
	l.orders[id] = &cp
}

// Get returns a copy of the order recorded under the given trade id.
func (l *Ledger) Get(id int) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return *o, nil
}

// Update applies mutate to the record under id. Two record invariants are
// enforced regardless of what the mutator writes: the filled quantity never
// decreases, and a terminal status never re-opens.
func (l *Ledger) Update(id int, mutate func(*domain.Order)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return ErrNotFound
	}

	prevFilled := o.FilledQty
	prevStatus := o.Status
	mutate(o)

	if o.FilledQty < prevFilled {
		o.FilledQty = prevFilled
	}
	if prevStatus.Terminal() && o.Status != prevStatus {
		o.Status = prevStatus
	}
	return nil
}

// ByBrokerID scans for the trade id holding the given broker order id. The
// broker id is derived from the records, not a second store; this lookup is
// only used during resolution.
func (l *Ledger) ByBrokerID(brokerOrderID string) (int, domain.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, o := range l.orders {
		if o.BrokerOrderID == brokerOrderID {
			return id, *o, true
		}
	}
	return 0, domain.Order{}, false
}

// Len returns the number of recorded orders.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}

// Reset wipes all records and restarts the id allocator. Called at logout.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = 1
	l.orders = make(map[int]*domain.Order)
}
