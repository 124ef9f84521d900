// Package watcher polls the set of running applications and reports changes
// to the live session as context-only notices.
package watcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/internal/events"
)

const (
	// DefaultInterval is the poll period while a session is connected.
	DefaultInterval = 3 * time.Second

	fetchTimeout = 2 * time.Second
	noticeSuffix = " (Context update only. DO NOT REPLY TO THIS MESSAGE.)"
)

// AppLister returns the names of running applications
type AppLister interface {
	RunningApps(ctx context.Context) ([]string, error)
}

// Notifier delivers a context notice to the session
type Notifier func(text string) error

// Watcher diffs consecutive snapshots of running applications
type Watcher struct {
	apps      AppLister
	notify    Notifier
	publisher events.Publisher
	interval  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	snapshot []string

	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a watcher. It does nothing until Start.
func New(apps AppLister, notify Notifier, publisher events.Publisher, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if publisher == nil {
		publisher = events.Nop
	}
	return &Watcher{
		apps:      apps,
		notify:    notify,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Seed sets the initial snapshot without sending a notice
func (w *Watcher) Seed(apps []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot = append([]string(nil), apps...)
}

// Snapshot returns a copy of the last observed application list
func (w *Watcher) Snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.snapshot...)
}

// Start begins polling in the background
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.loop(ctx)
	w.logger.Info("World-state watcher started", zap.Duration("interval", w.interval))
}

// Stop halts polling and waits for the loop to exit. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick fetches the current list, updates the snapshot and sends a notice when
// anything was opened or closed.
func (w *Watcher) Tick(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	current, err := w.apps.RunningApps(fetchCtx)
	cancel()
	if err != nil {
		w.logger.Warn("Failed to list running apps", zap.Error(err))
		return
	}

	w.mu.Lock()
	opened, closed := Diff(w.snapshot, current)
	w.snapshot = append([]string(nil), current...)
	w.mu.Unlock()

	if len(opened) == 0 && len(closed) == 0 {
		return
	}

	w.publisher.Publish(events.New(events.TypeWorldState, map[string]any{
		"opened": opened,
		"closed": closed,
	}))

	if err := w.notify(FormatNotice(opened, closed)); err != nil {
		w.logger.Debug("World-state notice not delivered", zap.Error(err))
		return
	}
	w.logger.Info("World-state notice sent",
		zap.Strings("opened", opened),
		zap.Strings("closed", closed))
}

// Diff returns the names present only in cur (opened) and only in prev (closed).
func Diff(prev, cur []string) (opened, closed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, p := range prev {
		prevSet[p] = struct{}{}
	}
	curSet := make(map[string]struct{}, len(cur))
	for _, c := range cur {
		curSet[c] = struct{}{}
	}

	for _, c := range cur {
		if _, ok := prevSet[c]; !ok {
			opened = append(opened, c)
			prevSet[c] = struct{}{}
		}
	}
	for _, p := range prev {
		if _, ok := curSet[p]; !ok {
			closed = append(closed, p)
			curSet[p] = struct{}{}
		}
	}
	return opened, closed
}

// FormatNotice renders the context-only message sent to the model.
func FormatNotice(opened, closed []string) string {
	var b strings.Builder
	if len(opened) > 0 {
		b.WriteString("[System Notice]: User OPENED " + strings.Join(opened, ", ") + ". ")
	}
	if len(closed) > 0 {
		b.WriteString("[System Notice]: User CLOSED " + strings.Join(closed, ", ") + ". ")
	}
	b.WriteString(noticeSuffix)
	return b.String()
}
