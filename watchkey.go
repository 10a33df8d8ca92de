package smbfs

import "sync"

// EventKind identifies the type of a watch event.
type EventKind int

const (
	// EventCreate signals a new child appeared in a watched directory.
	EventCreate EventKind = iota
	// EventDelete signals a watched path, or a child of it, disappeared.
	EventDelete
	// EventModify signals a watched file's content or attributes changed.
	EventModify
	// EventOverflow signals events were dropped because a key's event
	// buffer reached maxEventListSize before being drained.
	EventOverflow
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "CREATE"
	case EventDelete:
		return "DELETE"
	case EventModify:
		return "MODIFY"
	case EventOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// WatchEvent is one coalesced occurrence delivered by a WatchKey (spec
// C10), grounded on original_source's SmbWatchKey.Event.
type WatchEvent struct {
	Kind  EventKind
	Path  string
	Count int
}

// maxEventListSize bounds a key's pending-event buffer; once reached, new
// events coalesce into a single OVERFLOW event.
const maxEventListSize = 512

// WatchKey represents one path registered with a WatchService (spec C10),
// grounded on original_source's SmbWatchKey. Event coalescing follows the
// original: a repeat of the immediately preceding event's (kind, path)
// bumps its count instead of appending; a pending MODIFY for the same path
// is found and bumped even if it isn't the tail event, via lastModify.
type WatchKey struct {
	path    string
	watcher *WatchService
	kinds   map[EventKind]bool // requested event kinds; never includes EventOverflow

	mu          sync.Mutex
	ready       bool
	events      []WatchEvent
	lastModify  map[string]int // path -> index into events, for pending modifies
}

func newWatchKey(path string, watcher *WatchService, kinds map[EventKind]bool) *WatchKey {
	return &WatchKey{
		path:       path,
		watcher:    watcher,
		kinds:      kinds,
		ready:      true,
		lastModify: make(map[string]int),
	}
}

// Path returns the path this key watches.
func (k *WatchKey) Path() string { return k.path }

// Kinds returns the event kinds this key was registered for.
func (k *WatchKey) Kinds() []EventKind {
	out := make([]EventKind, 0, len(k.kinds))
	for kind := range k.kinds {
		out = append(out, kind)
	}
	return out
}

// PollEvents atomically drains and returns the key's pending events.
func (k *WatchKey) PollEvents() []WatchEvent {
	k.mu.Lock()
	defer k.mu.Unlock()
	current := k.events
	k.events = nil
	k.lastModify = make(map[string]int)
	return current
}

// Reset re-arms the key after the caller has processed PollEvents' result;
// it reports whether the key remains valid. If further events arrived
// since PollEvents was called, the key is immediately re-enqueued.
func (k *WatchKey) Reset() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.ready && len(k.events) == 0 {
		k.ready = true
	} else if !k.ready {
		k.watcher.enqueueKey(k)
	}
	return true
}

// Cancel removes this key from its watcher.
func (k *WatchKey) Cancel() {
	k.watcher.cancel(k)
}

// signal records one occurrence of kind against childPath, coalescing per
// the original's rules, and enqueues the key onto its watcher if it was
// idle. Only kinds the key was registered for are recorded; EventOverflow
// is always recorded, since it signals lost events regardless of which
// kind overflowed.
func (k *WatchKey) signal(kind EventKind, childPath string) {
	if kind != EventOverflow && !k.kinds[kind] {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	n := len(k.events)
	if n > 0 {
		tail := &k.events[n-1]
		if tail.Kind == EventOverflow || (tail.Kind == kind && tail.Path == childPath) {
			tail.Count++
			return
		}

		if len(k.lastModify) > 0 {
			if kind == EventModify {
				if idx, ok := k.lastModify[childPath]; ok {
					k.events[idx].Count++
					return
				}
			} else {
				delete(k.lastModify, childPath)
			}
		}

		if n >= maxEventListSize {
			kind = EventOverflow
			childPath = ""
		}
	}

	event := WatchEvent{Kind: kind, Path: childPath, Count: 1}
	if kind == EventModify {
		k.lastModify[childPath] = len(k.events)
	} else if kind == EventOverflow {
		k.events = nil
		k.lastModify = make(map[string]int)
	}
	k.events = append(k.events, event)
	k.signalLocked()
}

func (k *WatchKey) signalLocked() {
	if k.ready {
		k.ready = false
		k.watcher.enqueueKey(k)
	}
}
