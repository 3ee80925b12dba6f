package store

import (
	"log/slog"
	"sync"

	"github.com/provalab/provagen/internal/model"
)

// Subscription is a live view over the exam collection. C carries a fresh
// snapshot after every change; the current snapshot is delivered on
// subscribe. Cancel must be called when the consumer is done, after which C
// is closed.
type Subscription struct {
	C <-chan []model.Exam

	cancel func()
	once   sync.Once
}

// Cancel releases the subscription. Safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.once.Do(sub.cancel)
}

type watcher struct {
	ownerID int64 // 0 = all exams
	ch      chan []model.Exam
}

type watchHub struct {
	mu       sync.Mutex
	watchers map[*watcher]struct{}
	closed   bool
}

func newWatchHub() *watchHub {
	return &watchHub{watchers: make(map[*watcher]struct{})}
}

// Watch subscribes to changes of the full exam collection.
func (s *Store) Watch() (*Subscription, error) {
	return s.watch(0)
}

// WatchOwner subscribes to changes of one professor's exams.
func (s *Store) WatchOwner(ownerID int64) (*Subscription, error) {
	return s.watch(ownerID)
}

func (s *Store) watch(ownerID int64) (*Subscription, error) {
	initial, err := s.examsFor(ownerID)
	if err != nil {
		return nil, err
	}

	w := &watcher{ownerID: ownerID, ch: make(chan []model.Exam, 1)}
	w.ch <- initial

	hub := s.watchers
	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		close(w.ch)
		return &Subscription{C: w.ch, cancel: func() {}}, nil
	}
	hub.watchers[w] = struct{}{}
	hub.mu.Unlock()

	return &Subscription{
		C: w.ch,
		cancel: func() {
			hub.mu.Lock()
			if _, ok := hub.watchers[w]; ok {
				delete(hub.watchers, w)
				close(w.ch)
			}
			hub.mu.Unlock()
		},
	}, nil
}

func (s *Store) examsFor(ownerID int64) ([]model.Exam, error) {
	if ownerID == 0 {
		return s.ListExams()
	}
	return s.ListExamsByOwner(ownerID)
}

// notifyWatchers pushes a fresh snapshot to every live subscription. A slow
// consumer only ever sees the latest snapshot: the stale one is dropped.
func (s *Store) notifyWatchers() {
	hub := s.watchers
	hub.mu.Lock()
	targets := make([]*watcher, 0, len(hub.watchers))
	for w := range hub.watchers {
		targets = append(targets, w)
	}
	hub.mu.Unlock()

	for _, w := range targets {
		snapshot, err := s.examsFor(w.ownerID)
		if err != nil {
			slog.Error("watch snapshot failed", "owner_id", w.ownerID, "error", err)
			continue
		}
		hub.mu.Lock()
		if _, live := hub.watchers[w]; live {
			select {
			case w.ch <- snapshot:
			default:
				// The consumer may empty the channel between the failed
				// send and this drain, so the drain must not block.
				select {
				case <-w.ch:
				default:
				}
				w.ch <- snapshot
			}
		}
		hub.mu.Unlock()
	}
}

// WatcherCount returns the number of live subscriptions.
func (s *Store) WatcherCount() int {
	s.watchers.mu.Lock()
	defer s.watchers.mu.Unlock()
	return len(s.watchers.watchers)
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for w := range h.watchers {
		close(w.ch)
		delete(h.watchers, w)
	}
}
