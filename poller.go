package smbfs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Poller is the background worker that periodically diffs registered
// paths against the server and turns differences into WatchKey events
// (spec C11), grounded on original_source's AbstractSMBPoller (the
// register/cancel/close request-queue indirection, here expressed as a
// single request channel rather than a synchronized LinkedList) combined
// with StandardSmbPoller (the actual polling diff logic).
type Poller struct {
	collab   Collaborator
	interval time.Duration

	requests chan pollerRequest
	done     chan struct{}

	watcher *WatchService

	registry        map[string]*WatchKey
	modifiedTimes   map[string]time.Time
	knownDirContent map[string]map[string]bool
}

type pollerRequestKind int

const (
	pollerRegister pollerRequestKind = iota
	pollerCancel
	pollerClose
)

type pollerRequest struct {
	kind     pollerRequestKind
	path     string
	kinds    map[EventKind]bool
	key      *WatchKey
	resultCh chan pollerResult
}

type pollerResult struct {
	key *WatchKey
	err error
}

func newPoller(collab Collaborator, interval time.Duration) *Poller {
	return &Poller{
		collab:          collab,
		interval:        interval,
		requests:        make(chan pollerRequest),
		done:            make(chan struct{}),
		registry:        make(map[string]*WatchKey),
		modifiedTimes:   make(map[string]time.Time),
		knownDirContent: make(map[string]map[string]bool),
	}
}

// start launches the poller's background goroutine, bound to watcher for
// event delivery. It must be called at most once.
func (p *Poller) start(watcher *WatchService) {
	p.watcher = watcher
	go p.run()
}

// register creates a WatchKey for path and arms it for polling. kinds is
// validated before the request reaches the poller goroutine: every entry
// must be CREATE, MODIFY, DELETE, or OVERFLOW (unknown kinds are rejected
// with Unsupported), and at least one actionable (non-OVERFLOW) kind must
// remain, mirroring AbstractSMBPoller.register's validation.
func (p *Poller) register(path string, kinds []EventKind) (*WatchKey, error) {
	filtered, err := validateKinds(kinds)
	if err != nil {
		return nil, err
	}

	resultCh := make(chan pollerResult, 1)
	p.requests <- pollerRequest{kind: pollerRegister, path: path, kinds: filtered, resultCh: resultCh}
	res := <-resultCh
	return res.key, res.err
}

// validateKinds checks kinds against spec.md §4.10's REGISTER validation:
// every entry must be one of CREATE, MODIFY, DELETE, or OVERFLOW; unknown
// kinds are rejected with Unsupported; at least one actionable kind is
// required. OVERFLOW is accepted (it is a kind a caller may legitimately
// pass, e.g. when porting code that registered for it explicitly) but is
// never added to the returned set, since it is injected internally by the
// WatchKey coalescer rather than requested.
func validateKinds(kinds []EventKind) (map[EventKind]bool, error) {
	if len(kinds) == 0 {
		return nil, newError(InvalidArgument, "Register", "", errors.New("no kinds to register"))
	}

	filtered := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		switch k {
		case EventCreate, EventModify, EventDelete:
			filtered[k] = true
		case EventOverflow:
		default:
			return nil, newError(Unsupported, "Register", "", fmt.Errorf("unsupported watch kind: %v", k))
		}
	}
	if len(filtered) == 0 {
		return nil, newError(InvalidArgument, "Register", "", errors.New("no actionable kind to register"))
	}
	return filtered, nil
}

// cancel unregisters key; it is a no-op if key is already unregistered.
func (p *Poller) cancel(key *WatchKey) {
	resultCh := make(chan pollerResult, 1)
	p.requests <- pollerRequest{kind: pollerCancel, key: key, resultCh: resultCh}
	<-resultCh
}

// close stops the poller's background goroutine and releases its state.
func (p *Poller) close() error {
	resultCh := make(chan pollerResult, 1)
	p.requests <- pollerRequest{kind: pollerClose, resultCh: resultCh}
	<-resultCh
	<-p.done
	return nil
}

func (p *Poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case req := <-p.requests:
			switch req.kind {
			case pollerRegister:
				key := newWatchKey(req.path, p.watcher, req.kinds)
				p.registry[req.path] = key
				p.registerPathAttributes(ctx, req.path)
				req.resultCh <- pollerResult{key: key}
			case pollerCancel:
				delete(p.registry, req.key.path)
				delete(p.modifiedTimes, req.key.path)
				delete(p.knownDirContent, req.key.path)
				req.resultCh <- pollerResult{}
			case pollerClose:
				p.registry = make(map[string]*WatchKey)
				p.modifiedTimes = make(map[string]time.Time)
				p.knownDirContent = make(map[string]map[string]bool)
				req.resultCh <- pollerResult{}
				close(p.done)
				return
			}
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) registerPathAttributes(ctx context.Context, path string) {
	if t, err := p.collab.LastModified(ctx, path); err == nil {
		p.modifiedTimes[path] = t
	}
	if isDir, err := p.collab.IsDirectory(ctx, path); err == nil && isDir {
		content := make(map[string]bool)
		if names, err := p.collab.ListChildrenNames(ctx, path); err == nil {
			for _, n := range names {
				content[n] = true
			}
		}
		p.knownDirContent[path] = content
	}
}

type pollEvent struct {
	key  *WatchKey
	kind EventKind
	path string
}

// pollOnce diffs every registered path against the server once and
// delivers the resulting events to their keys, sorted DELETE before
// CREATE before MODIFY — the same ordering StandardSmbPoller uses so that
// a rename (delete+create pair) is observed in a natural order.
func (p *Poller) pollOnce(ctx context.Context) {
	var events []pollEvent

	for path, key := range p.registry {
		exists, err := p.collab.Exists(ctx, path)
		if err != nil {
			continue
		}
		if !exists {
			events = append(events, pollEvent{key: key, kind: EventDelete, path: path})
			continue
		}

		if !p.isModified(ctx, path) {
			continue
		}

		dirContent, isKnownDir := p.knownDirContent[path]
		if isKnownDir {
			names, err := p.collab.ListChildrenNames(ctx, path)
			if err != nil {
				continue
			}
			actual := make(map[string]bool, len(names))
			for _, n := range names {
				actual[n] = true
			}
			for sub := range dirContent {
				if !actual[sub] {
					events = append(events, pollEvent{key: key, kind: EventDelete, path: sub})
					delete(dirContent, sub)
				}
			}
			for sub := range actual {
				if !dirContent[sub] {
					events = append(events, pollEvent{key: key, kind: EventCreate, path: sub})
					dirContent[sub] = true
				}
			}
		} else {
			events = append(events, pollEvent{key: key, kind: EventModify, path: path})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return eventRank(events[i].kind) < eventRank(events[j].kind) })

	for _, e := range events {
		e.key.signal(e.kind, e.path)
		if e.kind == EventDelete {
			delete(p.modifiedTimes, e.path)
			delete(p.knownDirContent, e.path)
		}
	}
}

// eventRank orders events DELETE < CREATE < MODIFY for delivery, matching
// StandardSmbPoller's EventType ordinal ordering (independent of
// EventKind's own declaration order, which is immaterial here).
func eventRank(kind EventKind) int {
	switch kind {
	case EventDelete:
		return 0
	case EventCreate:
		return 1
	case EventModify:
		return 2
	default:
		return 3
	}
}

func (p *Poller) isModified(ctx context.Context, path string) bool {
	t, err := p.collab.LastModified(ctx, path)
	if err != nil {
		return false
	}
	prev, known := p.modifiedTimes[path]
	p.modifiedTimes[path] = t
	return !known || t.After(prev)
}
