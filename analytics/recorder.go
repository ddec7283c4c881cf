// Package analytics persists best-effort command usage rows. Recording never
// blocks a command handler: entries go through a bounded queue and are
// dropped when the writer cannot keep up.
package analytics

import (
	"context"
	"sync"
	"time"

	"goatedbot/models"
	"goatedbot/service"

	log "github.com/sirupsen/logrus"
)

// DefaultQueueSize bounds the in-flight entries before drops start.
const DefaultQueueSize = 256

// Recorder drains command log entries to storage on a background goroutine.
type Recorder struct {
	repo    service.CommandLogRepository
	queue   chan *models.CommandLogEntry
	dropped int64
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// NewRecorder creates a recorder and starts its drain loop.
func NewRecorder(repo service.CommandLogRepository, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		repo:  repo,
		queue: make(chan *models.CommandLogEntry, queueSize),
		done:  make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues one entry. Never blocks: when the queue is full the entry
// is counted as dropped and the caller proceeds.
func (r *Recorder) Record(platformUserID int64, command string, success bool, errMsg string) {
	entry := &models.CommandLogEntry{
		PlatformUserID: platformUserID,
		Command:        command,
		Success:        success,
		ExecutedAt:     time.Now(),
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}

	select {
	case r.queue <- entry:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		if dropped%100 == 1 {
			log.WithField("dropped", dropped).Warn("Analytics queue full, dropping entries")
		}
	}
}

// Dropped returns how many entries were discarded due to backpressure.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting entries and waits for the queue to drain.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) drain() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Log(ctx, entry); err != nil {
			log.WithField("command", entry.Command).WithError(err).Debug("Failed to persist analytics entry")
		}
		cancel()
	}
}
