package service

import (
	"context"
	"errors"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/logger"
	"pillar_journey_backend/pkg/monitoring"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Job 打卡提交后异步执行的任务，必须幂等
type Job struct {
	Name   string
	UserID uint
	Run    func(ctx context.Context) error
}

// JobQueue 固定数量的 worker 消费有界队列，失败按指数退避重试
type JobQueue struct {
	jobs       chan Job
	workers    int
	newBackOff func() backoff.BackOff
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

const jobMaxElapsed = 30 * time.Second

func defaultJobBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = jobMaxElapsed
	return bo
}

func NewJobQueue(size, workers int) *JobQueue {
	if size <= 0 {
		size = 1
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		jobs:       make(chan Job, size),
		workers:    workers,
		newBackOff: defaultJobBackOff,
		timeout:    10 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动 worker
func (q *JobQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue 非阻塞入队，队列已满或已关闭时丢弃并返回 false
func (q *JobQueue) Enqueue(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		monitoring.JobEvents.WithLabelValues(job.Name, "dropped").Inc()
		logger.Log.Warn("job queue full, dropping job", zap.String("job", job.Name), zap.Uint("user_id", job.UserID))
		return false
	}
}

// Stop 停止接收任务，等待已入队的任务处理完或 ctx 超时
func (q *JobQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *JobQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(job)
	}
}

func (q *JobQueue) process(job Job) {
	attempt := 0
	op := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
		defer cancel()

		err := job.Run(ctx)
		if err == nil {
			return nil
		}
		// 输入类错误重试也不会成功
		if errors.Is(err, util.ErrNotFound) || errors.Is(err, util.ErrInvalidInput) {
			return backoff.Permanent(err)
		}
		monitoring.JobEvents.WithLabelValues(job.Name, "retry").Inc()
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(q.newBackOff(), q.ctx))
	if err != nil {
		monitoring.JobEvents.WithLabelValues(job.Name, "failed").Inc()
		logger.Log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Uint("user_id", job.UserID),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return
	}
	monitoring.JobEvents.WithLabelValues(job.Name, "done").Inc()
}
