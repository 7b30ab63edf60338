// Package state provides the thread-safe snapshot shared by the poller and
// the UI.
//
// # Overview
//
// The poller renders the configured server on its own goroutine and records
// each viewer.Result with Store.Update. The UI reads Store.Snapshot on its
// own tick. Neither side waits on the other beyond the short copy performed
// under the lock.
//
//	Producer (poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ Render(ctx)    │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  backoff...    │            │  draw tree      │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
// A successful result replaces the tree and clears the error. A failed
// result keeps the last good tree, stores the error and fallback text and
// increments ConsecutiveFailures. Two failures in a row mark the snapshot
// offline so the header can say so.
//
// # Copying
//
// Update and Snapshot deep-copy the tree (channels, users and flag slices),
// so the UI may hold a snapshot while the poller records the next one.
//
// The zero Store is ready to use.
package state
