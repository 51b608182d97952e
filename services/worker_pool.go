package services

import (
	"context"
	"sync"
	"time"

	"github.com/lumicare/review-backend/config"
	"github.com/lumicare/review-backend/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Job is one unit of background work, typically a confirmation email
// send. Execute receives a context bounded by the job timeout.
type Job struct {
	Name    string
	Execute func(ctx context.Context) error
}

// JobDispatcher is the submission side of the worker pool. The intake
// handler depends on this interface so tests can run jobs synchronously.
type JobDispatcher interface {
	Submit(job Job) bool
}

// WorkerPool runs jobs on a bounded set of workers fed from a bounded
// queue. Job outcomes are observed only for logging and metrics; a
// failed job never propagates anywhere.
type WorkerPool struct {
	jobQueue   chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.SugaredLogger
	metrics    *workerPoolMetrics
	config     config.WorkerPoolConfig
	jobTimeout time.Duration
	mu         sync.Mutex
	running    bool
}

var _ JobDispatcher = (*WorkerPool)(nil)

type workerPoolMetrics struct {
	queueDepth    prometheus.Gauge
	completedJobs prometheus.Counter
	droppedJobs   prometheus.Counter
	errorCount    prometheus.Counter
	jobDuration   prometheus.Histogram
}

// Metrics are registered once per process; tests reset the registry.
var (
	wpMetricsInstance *workerPoolMetrics
	wpMetricsOnce     sync.Once
	wpRegistry        = prometheus.DefaultRegisterer
)

func newWorkerPoolMetrics() *workerPoolMetrics {
	wpMetricsOnce.Do(func() {
		wpMetricsInstance = &workerPoolMetrics{
			queueDepth: promauto.With(wpRegistry).NewGauge(prometheus.GaugeOpts{
				Name: "notification_queue_depth",
				Help: "Current number of notification jobs waiting in queue",
			}),
			completedJobs: promauto.With(wpRegistry).NewCounter(prometheus.CounterOpts{
				Name: "notification_jobs_completed_total",
				Help: "Total number of completed notification jobs",
			}),
			droppedJobs: promauto.With(wpRegistry).NewCounter(prometheus.CounterOpts{
				Name: "notification_jobs_dropped_total",
				Help: "Total number of jobs dropped due to a full queue",
			}),
			errorCount: promauto.With(wpRegistry).NewCounter(prometheus.CounterOpts{
				Name: "notification_job_errors_total",
				Help: "Total number of notification job failures",
			}),
			jobDuration: promauto.With(wpRegistry).NewHistogram(prometheus.HistogramOpts{
				Name:    "notification_job_duration_seconds",
				Help:    "Time taken to execute notification jobs",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}),
		}
	})
	return wpMetricsInstance
}

func resetWorkerPoolMetricsForTesting() {
	wpRegistry = prometheus.NewRegistry()
	wpMetricsInstance = nil
	wpMetricsOnce = sync.Once{}
}

// NewWorkerPool creates a stopped worker pool. jobTimeout bounds each
// job's execution so a hanging send cannot pin a worker.
func NewWorkerPool(cfg config.WorkerPoolConfig, jobTimeout time.Duration) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobQueue:   make(chan Job, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger.GetLogger().Named("worker-pool"),
		metrics:    newWorkerPoolMetrics(),
		config:     cfg,
		jobTimeout: jobTimeout,
	}
}

// Start launches the workers. Calling Start more than once is a no-op.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		wp.logger.Warn("Worker pool already running")
		return
	}
	wp.running = true

	wp.logger.Infow("Starting worker pool",
		"maxWorkers", wp.config.MaxWorkers,
		"queueSize", wp.config.QueueSize)

	for i := 0; i < wp.config.MaxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			wp.executeJob(id, job)
		}
	}
}

func (wp *WorkerPool) executeJob(workerID int, job Job) {
	wp.metrics.queueDepth.Dec()
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	if err := job.Execute(jobCtx); err != nil {
		wp.metrics.errorCount.Inc()
		wp.logger.Errorw("Job failed",
			"job", job.Name,
			"workerId", workerID,
			"error", err,
			"duration", time.Since(start))
	} else {
		wp.logger.Debugw("Job completed",
			"job", job.Name,
			"workerId", workerID,
			"duration", time.Since(start))
	}

	wp.metrics.jobDuration.Observe(time.Since(start).Seconds())
	wp.metrics.completedJobs.Inc()
}

// Submit enqueues a job without blocking. Returns false when the queue
// is full and the job was dropped.
func (wp *WorkerPool) Submit(job Job) bool {
	select {
	case wp.jobQueue <- job:
		wp.metrics.queueDepth.Inc()
		return true
	default:
		wp.metrics.droppedJobs.Inc()
		wp.logger.Warnw("Job dropped, queue full",
			"job", job.Name,
			"queueSize", wp.config.QueueSize)
		return false
	}
}

// Shutdown stops the pool, waiting for in-flight jobs until the context
// expires.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return nil
	}
	wp.running = false
	wp.mu.Unlock()

	wp.cancel()
	close(wp.jobQueue)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info("Worker pool shutdown complete")
		return nil
	case <-ctx.Done():
		wp.logger.Warn("Worker pool shutdown timed out")
		return ctx.Err()
	}
}

// QueueDepth returns the number of queued jobs.
func (wp *WorkerPool) QueueDepth() int {
	return len(wp.jobQueue)
}

// IsRunning reports whether the pool has been started and not shut down.
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.running
}
