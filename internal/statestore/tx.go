package statestore

import (
	"sort"

	"github.com/smallbiznis/snelcrm/internal/events"
)

// Tx is the write handle passed to Update. It is only valid inside the
// callback.
type Tx[S any] struct {
	state   *S
	touched map[string]struct{}
	events  []events.Event
}

func (tx *Tx[S]) State() *S { return tx.state }

// Touch marks collections for persistence once the callback succeeds.
func (tx *Tx[S]) Touch(keys ...string) {
	for _, key := range keys {
		tx.touched[key] = struct{}{}
	}
}

// Emit queues an event, published after the write lock is released.
func (tx *Tx[S]) Emit(evt events.Event) {
	tx.events = append(tx.events, evt)
}

func (tx *Tx[S]) touchedKeys() []string {
	keys := make([]string, 0, len(tx.touched))
	for key := range tx.touched {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
