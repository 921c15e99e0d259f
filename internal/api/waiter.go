// FILE: internal/api/waiter.go
package api

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for session changes
type WaitRegistry struct {
	timeout  time.Duration
	mu       sync.RWMutex
	waiters  map[string][]*WaitRequest // sessionID → waiting clients
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for session updates
type WaitRequest struct {
	MoveCount int           // Last known move count
	Notify    chan struct{} // Buffered channel for notifications
	Timer     *time.Timer   // Timeout timer
	SessionID string

	done     chan struct{}
	doneOnce sync.Once
}

// NewWaitRegistry creates a registry; a zero timeout means WaitTimeout.
func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		timeout:  timeout,
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait registers a client to wait for session changes. The returned
// channel fires on a change, on timeout, or at shutdown. The
// caller must call cancel once it stops waiting.
func (w *WaitRegistry) RegisterWait(ctx context.Context, sessionID string, moveCount int) (notify <-chan struct{}, cancel func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &WaitRequest{
		MoveCount: moveCount,
		Notify:    make(chan struct{}, WaitChannelBuffer),
		SessionID: sessionID,
		done:      make(chan struct{}),
	}
	req.Timer = time.AfterFunc(w.timeout, func() {
		w.signal(req)
	})
	w.waiters[sessionID] = append(w.waiters[sessionID], req)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			// Client disconnected
			w.removeWaiter(sessionID, req)
		case <-req.done:
		case <-w.shutdown:
			w.signal(req)
			req.release()
		}
	}()

	return req.Notify, func() { w.removeWaiter(sessionID, req) }
}

// NotifySession wakes clients whose known move count differs from the
// current one.
func (w *WaitRegistry) NotifySession(sessionID string, currentMoveCount int) {
	w.mu.RLock()
	waitList := append([]*WaitRequest(nil), w.waiters[sessionID]...)
	w.mu.RUnlock()

	for _, req := range waitList {
		if req.MoveCount != currentMoveCount {
			w.signal(req)
			w.removeWaiter(sessionID, req)
		}
	}
}

// EndSession wakes every client of a session that ended.
func (w *WaitRegistry) EndSession(sessionID string) {
	w.mu.Lock()
	waitList := w.waiters[sessionID]
	delete(w.waiters, sessionID)
	w.mu.Unlock()

	for _, req := range waitList {
		w.signal(req)
		req.release()
	}
}

// Shutdown releases every waiting client.
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("http wait registry shutdown failed")
	}
}

func (w *WaitRegistry) signal(req *WaitRequest) {
	select {
	case req.Notify <- struct{}{}:
	default:
		// Channel full, client already woken
	}
}

// removeWaiter removes a specific waiter from the registry
func (w *WaitRegistry) removeWaiter(sessionID string, req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[sessionID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[sessionID] = append(waitList[:i:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[sessionID]) == 0 {
		delete(w.waiters, sessionID)
	}
	req.release()
}

func (r *WaitRequest) release() {
	r.doneOnce.Do(func() {
		r.Timer.Stop()
		close(r.done)
	})
}
