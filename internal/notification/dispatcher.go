package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pusher sends one text message to an external chat identity.
type Pusher interface {
	Push(ctx context.Context, externalID, text string) error
}

// BindingSource resolves a tenant to its external chat identity. An empty
// id with a nil error means the tenant has no channel binding.
type BindingSource interface {
	ExternalIDForTenant(ctx context.Context, tenantID int64) (string, error)
}

type deliveryJob struct {
	JobID          string
	NotificationID int64
	TenantID       int64
	Text           string
}

type worker struct {
	id         int
	workerPool chan chan deliveryJob
	jobChannel chan deliveryJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan deliveryJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan deliveryJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(deliveryJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("delivery worker processing job", "worker_id", w.id, "job_id", job.JobID)
				processFunc(job)
			case <-ctx.Done():
				w.logger.Debug("delivery worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Dispatcher persists notification rows and pushes them to the external
// channel on a bounded worker pool. Raise never blocks on delivery and never
// reports delivery problems to its caller; the outcome lands on the row's
// delivery status instead.
type Dispatcher struct {
	repo     Repository
	bindings BindingSource
	pusher   Pusher
	logger   *slog.Logger

	jobQueue   chan deliveryJob
	workerPool chan chan deliveryJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	// mu guards closed and the jobQueue sends racing against Shutdown's
	// close of the queue.
	mu     sync.RWMutex
	closed bool
}

type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

func NewDispatcher(repo Repository, bindings BindingSource, pusher Pusher, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 256
	}

	d := &Dispatcher{
		repo:     repo,
		bindings: bindings,
		pusher:   pusher,
		logger:   logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan deliveryJob, jobQueueSize),
		workerPool: make(chan chan deliveryJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()

	return d
}

func (d *Dispatcher) startWorkerPool() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			w := newWorker(i, d.workerPool, d.logger)
			w.start(d.ctx, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification delivery pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	// Runs until the queue is closed AND drained, so jobs buffered at
	// shutdown still get delivered.
	for job := range d.jobQueue {
		jobChannel := <-d.workerPool
		jobChannel <- job
	}

	d.logger.Info("delivery dispatcher drained, stopping workers")
	d.cancel()
}

// Shutdown closes the queue, lets the pool drain every buffered job and
// waits for in-flight deliveries to finish. Safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobQueue)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}

// Raise writes the notification row synchronously so it is visible even when
// delivery fails, then schedules one delivery attempt. Returns the row id,
// or 0 when even the synchronous write failed.
func (d *Dispatcher) Raise(ctx context.Context, tenantID int64, typ, title, body, refKind string, refID int64) int64 {
	if !KnownType(typ) {
		d.logger.Error("refusing to raise notification of unknown type", "type", typ, "tenant_id", tenantID)
		return 0
	}

	n := &Notification{
		TenantID:  tenantID,
		Type:      typ,
		Title:     title,
		Body:      body,
		RefKind:   refKind,
		RefID:     refID,
		CreatedAt: time.Now().UTC(),
	}

	if err := d.repo.Create(ctx, n); err != nil {
		d.logger.Error("failed to persist notification", "error", err, "tenant_id", tenantID, "type", typ)
		return 0
	}

	d.enqueue(deliveryJob{
		JobID:          uuid.NewString(),
		NotificationID: n.ID,
		TenantID:       tenantID,
		Text:           title + "\n" + body,
	})

	return n.ID
}

// Redeliver re-attempts delivery for notifications whose last attempt
// failed. Used by the operator-facing worker command.
func (d *Dispatcher) Redeliver(ctx context.Context, limit int) (int, error) {
	failed, err := d.repo.ListFailed(ctx, limit)
	if err != nil {
		return 0, err
	}

	for _, n := range failed {
		d.enqueue(deliveryJob{
			JobID:          uuid.NewString(),
			NotificationID: n.ID,
			TenantID:       n.TenantID,
			Text:           n.Title + "\n" + n.Body,
		})
	}

	return len(failed), nil
}

func (d *Dispatcher) enqueue(job deliveryJob) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("delivery pool stopped, recording failure",
			"job_id", job.JobID,
			"notification_id", job.NotificationID)
		d.recordOutcome(job.NotificationID, DeliveryFail, "delivery pool stopped")
		return
	}

	select {
	case d.jobQueue <- job:
		d.logger.Debug("delivery job queued",
			"job_id", job.JobID,
			"notification_id", job.NotificationID,
			"queue_length", len(d.jobQueue))
	default:
		d.logger.Warn("delivery queue full, recording failure",
			"job_id", job.JobID,
			"notification_id", job.NotificationID,
			"queue_capacity", cap(d.jobQueue))
		d.recordOutcome(job.NotificationID, DeliveryFail, "delivery queue full")
	}
}

// deliver runs on a pool worker, detached from the request that raised the
// notification. It does not use the pool context: a delivery picked up
// during the shutdown drain runs to completion, bounded by the pusher's own
// send timeout.
func (d *Dispatcher) deliver(job deliveryJob) {
	ctx := context.Background()

	externalID, err := d.bindings.ExternalIDForTenant(ctx, job.TenantID)
	if err != nil {
		d.logger.Error("binding lookup failed", "error", err, "job_id", job.JobID, "tenant_id", job.TenantID)
		d.recordOutcome(job.NotificationID, DeliveryFail, err.Error())
		return
	}
	if externalID == "" {
		// not an error: the tenant simply has not linked a chat identity
		d.recordOutcome(job.NotificationID, DeliveryUnlinked, "")
		return
	}

	if err := d.pusher.Push(ctx, externalID, job.Text); err != nil {
		d.logger.Error("notification delivery failed",
			"error", err,
			"job_id", job.JobID,
			"notification_id", job.NotificationID)
		d.recordOutcome(job.NotificationID, DeliveryFail, err.Error())
		return
	}

	d.recordOutcome(job.NotificationID, DeliveryOK, "")
	d.logger.Info("notification delivered", "job_id", job.JobID, "notification_id", job.NotificationID)
}

func (d *Dispatcher) recordOutcome(notificationID int64, status, deliveryErr string) {
	var errText *string
	if deliveryErr != "" {
		errText = &deliveryErr
	}
	var deliveredAt *time.Time
	if status == DeliveryOK {
		now := time.Now().UTC()
		deliveredAt = &now
	}

	if err := d.repo.UpdateDelivery(context.Background(), notificationID, status, errText, deliveredAt); err != nil {
		d.logger.Error("failed to record delivery outcome",
			"error", err,
			"notification_id", notificationID,
			"status", status)
	}
}
