package smbfs

import (
	"context"
	"time"
)

// WatchService delivers WatchKey notifications as paths change on the
// server (spec C12), grounded on original_source's SmbWatchService. The
// Java deque is expressed as a buffered channel; a sentinel closeKey
// unblocks any caller parked in Take when Close runs, mirroring the
// original's CLOSE_KEY.
type WatchService struct {
	poller *Poller

	pending  chan *WatchKey
	closed   bool
	closeKey *WatchKey
}

const watchServiceQueueCapacity = 256

func newWatchService(poller *Poller) *WatchService {
	ws := &WatchService{
		poller:  poller,
		pending: make(chan *WatchKey, watchServiceQueueCapacity),
	}
	ws.closeKey = newWatchKey("", ws, nil)
	poller.start(ws)
	return ws
}

// enqueueKey places key on the pending queue for delivery; called by the
// Poller (and by WatchKey.Reset) when a key transitions to SIGNALLED.
func (ws *WatchService) enqueueKey(key *WatchKey) {
	select {
	case ws.pending <- key:
	default:
		// Queue is saturated; drop silently rather than block the poller
		// goroutine. A key already queued will be re-delivered on its next
		// Reset, so no event is permanently lost, only its delivery delayed.
	}
}

// Register arms path for watching and returns its WatchKey. kinds is the
// set of event kinds the caller wants delivered (see Poller.register).
func (ws *WatchService) Register(ctx context.Context, path string, kinds []EventKind) (*WatchKey, error) {
	if ws.closed {
		return nil, newError(ClosedWatchService, "Register", path, nil)
	}
	return ws.poller.register(path, kinds)
}

// cancel unregisters key from the poller.
func (ws *WatchService) cancel(key *WatchKey) {
	ws.poller.cancel(key)
}

// Poll returns a signaled key if one is immediately available, else nil.
func (ws *WatchService) Poll() (*WatchKey, error) {
	if ws.closed {
		return nil, newError(ClosedWatchService, "Poll", "", nil)
	}
	select {
	case key := <-ws.pending:
		return ws.checkKey(key)
	default:
		return nil, nil
	}
}

// PollTimeout returns a signaled key, waiting up to timeout for one to
// arrive.
func (ws *WatchService) PollTimeout(timeout time.Duration) (*WatchKey, error) {
	if ws.closed {
		return nil, newError(ClosedWatchService, "Poll", "", nil)
	}
	select {
	case key := <-ws.pending:
		return ws.checkKey(key)
	case <-time.After(timeout):
		return nil, nil
	}
}

// Take blocks until a signaled key is available or ctx is done.
func (ws *WatchService) Take(ctx context.Context) (*WatchKey, error) {
	if ws.closed {
		return nil, newError(ClosedWatchService, "Take", "", nil)
	}
	select {
	case key := <-ws.pending:
		return ws.checkKey(key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ws *WatchService) checkKey(key *WatchKey) (*WatchKey, error) {
	if key == ws.closeKey {
		ws.enqueueKey(key)
		return nil, newError(ClosedWatchService, "Poll", "", nil)
	}
	return key, nil
}

// Close shuts down the poller and unblocks any caller parked in Take.
func (ws *WatchService) Close() error {
	if ws.closed {
		return nil
	}
	ws.closed = true
	err := ws.poller.close()
	ws.enqueueKey(ws.closeKey)
	return err
}
