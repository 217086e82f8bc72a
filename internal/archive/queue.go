package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
)

// TaskTypeArchive is the asynq task type for screenshot archiving.
const TaskTypeArchive = "screenshot:archive"

// DefaultQueue is the queue archive tasks go to.
const DefaultQueue = "archive"

// NewArchiveTask encodes a screenshot as an archive task.
func NewArchiveTask(shot Screenshot) (*asynq.Task, error) {
	payload, err := json.Marshal(shot)
	if err != nil {
		return nil, fmt.Errorf("archive.NewArchiveTask: %w", err)
	}
	return asynq.NewTask(TaskTypeArchive, payload), nil
}

// QueueArchiver hands screenshots to the worker through Redis instead of uploading
// them in the request path.
type QueueArchiver struct {
	client *asynq.Client
	queue  string
	log    zerolog.Logger
}

// NewQueueArchiver connects an asynq client to redisURL.
func NewQueueArchiver(redisURL, queue string) (*QueueArchiver, error) {
	const op = "archive.NewQueueArchiver"

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse Redis URL: %w", op, err)
	}
	if queue == "" {
		queue = DefaultQueue
	}
	return &QueueArchiver{
		client: asynq.NewClient(opt),
		queue:  queue,
		log:    logger.WithComponent("archive.queue"),
	}, nil
}

// Archive implements Archiver by enqueueing the screenshot.
func (q *QueueArchiver) Archive(ctx context.Context, shot Screenshot) error {
	const op = "archive.QueueArchiver.Archive"

	task, err := NewArchiveTask(shot)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(q.queue),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("%s: enqueue: %w", op, err)
	}

	q.log.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("fingerprint", shot.Fingerprint).
		Msg("Archive task enqueued")
	return nil
}

// Close closes the asynq client.
func (q *QueueArchiver) Close() error {
	return q.client.Close()
}

// WorkerConfig configures the archive worker.
type WorkerConfig struct {
	RedisURL    string
	Queue       string
	Concurrency int
	Target      Archiver
}

// Worker consumes archive tasks and writes them with Target.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	target Archiver
	log    zerolog.Logger
}

// NewWorker creates a worker. Target is usually an *S3Archiver.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	const op = "archive.NewWorker"

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("%s: REDIS_URL is required", op)
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("%s: archive target is required", op)
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse Redis URL: %w", op, err)
	}

	log := logger.WithComponent("archive.worker")
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			// 5s, 10s, 20s ... capped at a minute
			return min(time.Duration(5*(1<<uint(n)))*time.Second, time.Minute)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("task_type", task.Type()).Msg("Archive task failed")
		}),
		Logger: asynqLogger{log: log},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		target: cfg.Target,
		log:    log,
	}
	w.mux.HandleFunc(TaskTypeArchive, w.HandleArchive)
	return w, nil
}

// HandleArchive processes one archive task. Undecodable payloads are not retried.
func (w *Worker) HandleArchive(ctx context.Context, task *asynq.Task) error {
	var shot Screenshot
	if err := json.Unmarshal(task.Payload(), &shot); err != nil {
		return fmt.Errorf("archive: invalid task payload: %v: %w", err, asynq.SkipRetry)
	}
	if len(shot.Data) == 0 {
		return fmt.Errorf("archive: task has no image data: %w", asynq.SkipRetry)
	}
	return w.target.Archive(ctx, shot)
}

// Run blocks processing tasks until the process receives a termination signal.
func (w *Worker) Run() error {
	w.log.Info().Msg("Archive worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
