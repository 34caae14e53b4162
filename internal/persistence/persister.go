package persistence

import (
	"context"
	"sync"
	"time"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

const defaultQueueSize = 256

// StatusReporter receives the isSaving / lastSavedAt signals of a session.
type StatusReporter interface {
	SetSaveStatus(saving bool, savedAt time.Time)
}

type job struct {
	id     string
	change editor.Change
	export func() *models.ClickRecording
	status StatusReporter
}

// Persister forwards Store changes to the storage collaborator from a single
// worker goroutine. Enqueue never blocks: when a session has more than
// queueSize changes waiting, the oldest are folded into the newest, which
// carries the full document anyway. Failures are logged and counted; the
// in-memory edit is never rolled back, and the last write wins.
type Persister struct {
	storage   interfaces.StorageCollaborator
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	timeout   time.Duration
	queueSize int
	now       func() time.Time

	mu      sync.Mutex
	queue   map[string][]job
	order   []string
	wake    chan struct{}
	closed  bool
	stopped chan struct{}
}

func NewPersister(conf *structures.Config, storage interfaces.StorageCollaborator, logger providers.Logger, metrics providers.MetricsProviderInterface) *Persister {
	size := conf.Storage.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	timeout := conf.Storage.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Persister{
		storage:   storage,
		logger:    logger,
		metrics:   metrics,
		timeout:   timeout,
		queueSize: size,
		now:       time.Now,
		queue:     make(map[string][]job),
		wake:      make(chan struct{}, 1),
		stopped:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Sink returns the editor.ChangeSink of one session. export is called from
// the worker to read the document as of the time the change is sent.
func (p *Persister) Sink(id string, status StatusReporter, export func() *models.ClickRecording) editor.ChangeSink {
	return &sessionSink{p: p, id: id, status: status, export: export}
}

type sessionSink struct {
	p      *Persister
	id     string
	status StatusReporter
	export func() *models.ClickRecording
}

func (s *sessionSink) Enqueue(c editor.Change) {
	s.p.enqueue(job{id: s.id, change: c, export: s.export, status: s.status})
}

func (p *Persister) enqueue(j job) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warnf(providers.TypeStorage, "Dropping change %s/%d for %s: persister is closed", j.change.Op, j.change.Revision, j.id)
		return
	}
	pending, ok := p.queue[j.id]
	if !ok {
		p.order = append(p.order, j.id)
	}
	if len(pending) >= p.queueSize {
		pending = pending[len(pending)-p.queueSize+1:]
	}
	p.queue[j.id] = append(pending, j)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending is the number of changes not yet sent.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, q := range p.queue {
		n += len(q)
	}
	return n
}

func (p *Persister) next() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.order) > 0 {
		id := p.order[0]
		q := p.queue[id]
		if len(q) == 0 {
			delete(p.queue, id)
			p.order = p.order[1:]
			continue
		}
		j := q[0]
		if len(q) == 1 {
			delete(p.queue, id)
			p.order = p.order[1:]
		} else {
			p.queue[id] = q[1:]
			// round-robin between sessions
			p.order = append(p.order[1:], id)
		}
		return j, true
	}
	return job{}, false
}

func (p *Persister) run() {
	defer close(p.stopped)
	for {
		j, ok := p.next()
		if ok {
			p.send(j)
			continue
		}
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}
		<-p.wake
	}
}

func (p *Persister) send(j job) {
	if j.status != nil {
		j.status.SetSaveStatus(true, time.Time{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := p.now()
	err := p.storage.PersistSnapshotUpdate(ctx, j.id, j.change, j.export())
	p.metrics.ObservePersistenceDuration(p.now().Sub(start))

	if err != nil {
		p.metrics.IncPersistenceFailures()
		p.logger.Errorf(providers.TypeStorage, "PersistenceFailure: recording %s slide %d (%s, revision %d): %s",
			j.id, j.change.Index, j.change.Op, j.change.Revision, err)
		if j.status != nil {
			j.status.SetSaveStatus(false, time.Time{})
		}
		return
	}
	p.logger.Debugf(providers.TypeStorage, "Persisted %s for recording %s slide %d (revision %d)", j.change.Op, j.id, j.change.Index, j.change.Revision)
	if j.status != nil {
		j.status.SetSaveStatus(false, p.now())
	}
}

// Forget drops queued changes of a session that is being deleted.
func (p *Persister) Forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.queue, id)
}

// DeleteRecording tells the collaborator a recording is gone.
func (p *Persister) DeleteRecording(ctx context.Context, id string) error {
	p.Forget(id)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.storage.DeleteRecording(ctx, id)
}

// Close stops accepting changes, sends what is queued and closes the
// collaborator. It gives up waiting when ctx is done.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}

	select {
	case <-p.stopped:
	case <-ctx.Done():
		p.logger.Warnf(providers.TypeStorage, "Persister closed with %d changes unsent", p.Pending())
		return ctx.Err()
	}
	return p.storage.Close()
}
