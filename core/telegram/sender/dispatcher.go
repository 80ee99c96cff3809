package sender

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
	"github.com/m3rciful/hrbot/core/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer of each worker shard.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	key      string
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs sharing a key run on the same worker, so replies to one chat keep
// their order.
type Dispatcher struct {
	opts   Options
	shards []chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
	sent   atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules run on the shard owning key.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, key, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	j := job{ctx: ctx, key: key, action: action, endpoint: endpoint, run: run}
	select {
	case d.shards[d.shardFor(key)] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(key string) int {
	if len(d.shards) == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.shards)))
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// SentCount returns the number of jobs that eventually succeeded.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(j)
	}
}

// handleJob runs j until it succeeds, fails permanently, exhausts its
// retries or overruns MaxDuration. Cancelling the enqueuing context does not
// abort a send already accepted.
func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	budget, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	limit := d.opts.MaxRetries + 1
	var (
		n   int
		err error
	)
	for n < limit {
		n++
		if err = j.run(); err == nil {
			d.sent.Add(1)
			logSendSuccess(ctx, j, n, time.Since(start))
			return
		}
		delay, retry := d.retryDelay(err, n)
		if !retry || n == limit {
			break
		}
		logger.Debug(ctx, logger.CompTGSender, "send.retry.backoff",
			append(sendLogAttrs(ctx, j, time.Since(start)),
				slog.Int("attempt", n),
				slog.Duration("delay", delay),
			)...,
		)
		if werr := sleep(budget, delay); werr != nil {
			err = werr
			break
		}
	}
	d.errs.Add(1)
	logSendFailure(ctx, j, err, n, time.Since(start))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryDelay honours Telegram's flood-control hint and otherwise backs off
// linearly for transient network errors.
func (d *Dispatcher) retryDelay(err error, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		wait := time.Duration(flood.RetryAfter) * time.Second
		if wait <= 0 {
			wait = d.opts.RetryBackoff
		}
		return wait, wait < d.opts.MaxDuration
	}
	if !netutil.ShouldRetry(err) {
		return 0, false
	}
	return d.opts.RetryBackoff * time.Duration(attempt), true
}

func sendLogAttrs(ctx context.Context, j job, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{slog.String("method", j.action), slog.Duration("duration", elapsed)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	return attrs
}

func logSendSuccess(ctx context.Context, j job, attempt int, elapsed time.Duration) {
	metrics.TelegramSends.WithLabelValues(metrics.OutcomeOK, "").Inc()
	attrs := sendLogAttrs(ctx, j, elapsed)
	if attempt == 1 {
		logger.Debug(ctx, logger.CompTGSender, "send.success", attrs...)
		return
	}
	logger.Info(ctx, logger.CompTGSender, "send.retry.success", append(attrs, slog.Int("attempt", attempt))...)
}

func logSendFailure(ctx context.Context, j job, err error, attempts int, elapsed time.Duration) {
	kind := classifyError(err)
	metrics.TelegramSends.WithLabelValues(metrics.OutcomeError, kind).Inc()
	logger.Error(ctx, logger.CompTGSender, "send.fail", append(sendLogAttrs(ctx, j, elapsed),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", kind),
		slog.Int("attempts", attempts),
	)...)
}
