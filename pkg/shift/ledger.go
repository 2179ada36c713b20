// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shift

import (
	"context"
	"sync"
	"time"
)

// Ledger is the external keyed store of shift records. Implementations must
// return deep copies; callers mutate the returned record and write it back
// via Update.
type Ledger interface {
	// FindActive returns the most recently created non-checked-out record for
	// the identity with a check-in at or after since, or nil if none exists.
	FindActive(ctx context.Context, identity string, since time.Time) (*Record, error)
	// Create stores a new record.
	Create(ctx context.Context, record *Record) error
	// Update overwrites the stored record with the same ID.
	Update(ctx context.Context, record *Record) error
}

// MemoryLedger is a process-local Ledger used in tests and single-node
// deployments without redis.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string][]*Record
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string][]*Record),
	}
}

// FindActive scans the identity's records newest-first.
func (l *MemoryLedger) FindActive(_ context.Context, identity string, since time.Time) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	recs := l.records[identity]
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Status != StatusCheckedOut && !recs[i].CheckIn.Before(since) {
			return recs[i].Clone(), nil
		}
	}

	return nil, nil
}

// Create appends a copy of the record.
func (l *MemoryLedger) Create(_ context.Context, record *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[record.Identity] = append(l.records[record.Identity], record.Clone())

	return nil
}

// Update replaces the stored record with the same ID.
func (l *MemoryLedger) Update(_ context.Context, record *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.records[record.Identity]
	for i := range recs {
		if recs[i].ID == record.ID {
			recs[i] = record.Clone()

			return nil
		}
	}

	// Unknown ID: store it anyway, the ledger is a keyed store not a
	// gatekeeper.
	l.records[record.Identity] = append(recs, record.Clone())

	return nil
}

// All returns every record for an identity, oldest first. Test helper.
func (l *MemoryLedger) All(identity string) []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	recs := l.records[identity]
	out := make([]*Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}

	return out
}
