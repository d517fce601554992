package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/teamflow/teamflow/internal/config"
	"github.com/teamflow/teamflow/pkg/logger"
)

const (
	TaskTypeDigest = "digest:deliver"
)

// DigestJob is one queued digest delivery for a single user.
type DigestJob struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailQueue defines the interface for digest delivery processing.
type MailQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(job *DigestJob) error
	// IsAsync returns true if the queue processes jobs asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// AsyncMailQueue implements MailQueue using asynq (Redis-based).
type AsyncMailQueue struct {
	client *asynq.Client
}

// NewAsyncMailQueue creates a new Redis-based async queue.
func NewAsyncMailQueue(cfg *config.RedisConfig) (*AsyncMailQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncMailQueue{client: client}, nil
}

func (q *AsyncMailQueue) Enqueue(job *DigestJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDigest, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("digest job enqueued")
	return nil
}

func (q *AsyncMailQueue) IsAsync() bool { return true }

func (q *AsyncMailQueue) Close() error { return q.client.Close() }

// SyncMailQueue processes jobs in-process when Redis is unavailable.
type SyncMailQueue struct {
	mailer Mailer
}

func NewSyncMailQueue(mailer Mailer) *SyncMailQueue {
	return &SyncMailQueue{mailer: mailer}
}

func (q *SyncMailQueue) Enqueue(job *DigestJob) error {
	return q.mailer.Send(job.Email, job.Subject, job.Body)
}

func (q *SyncMailQueue) IsAsync() bool { return false }

func (q *SyncMailQueue) Close() error { return nil }

// NewMailQueue picks the async queue when Redis is enabled and falls
// back to synchronous delivery otherwise.
func NewMailQueue(cfg *config.Config, mailer Mailer) MailQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncMailQueue(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, falling back to sync mail delivery")
			return NewSyncMailQueue(mailer)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("async mail queue initialized")
		return queue
	}
	logger.Info().Msg("sync mail delivery (redis disabled)")
	return NewSyncMailQueue(mailer)
}

// MailWorker drains queued digest jobs from Redis.
type MailWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	mailer  Mailer
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewMailWorker creates a worker; returns nil when Redis is disabled.
func NewMailWorker(cfg *config.RedisConfig, mailer Mailer) *MailWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("type", task.Type()).Msg("mail worker task failed")
			}),
		},
	)

	return &MailWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		mailer: mailer,
	}
}

// Start begins processing queued digest jobs.
func (w *MailWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeDigest, w.handleDigestJob)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("mail worker starting")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("mail worker server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *MailWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Info().Msg("mail worker stopped")
}

func (w *MailWorker) handleDigestJob(ctx context.Context, t *asynq.Task) error {
	var job DigestJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return err
	}
	return w.mailer.Send(job.Email, job.Subject, job.Body)
}
