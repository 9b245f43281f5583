package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/resilience"
)

const workerQueueGroup = "extractors"

// Queue moves extraction jobs over NATS request/reply. The API side requests,
// workers in the "extractors" queue group reply.
type Queue struct {
	conn           *nats.Conn
	subject        string
	executor       *resilience.Executor
	requestTimeout time.Duration
	concurrency    int
	jobTimeout     time.Duration
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor

	// RequestTimeout bounds a request when the caller's context has no deadline.
	RequestTimeout time.Duration
	// Concurrency is the number of jobs a worker runs at once.
	Concurrency int
	// JobTimeout bounds a single job on the worker side.
	JobTimeout time.Duration
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	jobTimeout := options.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}

	conn, err := nats.Connect(
		url,
		nats.Name("health-record-extractor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		executor:       options.ResilienceExecutor,
		requestTimeout: requestTimeout,
		concurrency:    concurrency,
		jobTimeout:     jobTimeout,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// RequestExtraction sends job to a worker and waits for its reply.
func (q *Queue) RequestExtraction(ctx context.Context, job domain.ExtractionJob) (*domain.ExtractionReply, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction job: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.requestTimeout)
		defer cancel()
	}

	var reply domain.ExtractionReply
	call := func(callCtx context.Context) error {
		msg, err := q.conn.RequestWithContext(callCtx, q.subject, data)
		if err != nil {
			return fmt.Errorf("nats request: %w", err)
		}
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			return fmt.Errorf("decode extraction reply: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.request", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("nats request", err)
	}
	return &reply, nil
}

// ServeExtractions answers jobs until ctx is done, then drains the
// subscription and waits for in-flight jobs.
func (q *Queue) ServeExtractions(
	ctx context.Context,
	handler func(context.Context, domain.ExtractionJob) domain.ExtractionReply,
) error {
	var jobs errgroup.Group
	jobs.SetLimit(q.concurrency)

	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		// Go blocks once the limit is reached, which holds back the subscription.
		jobs.Go(func() error {
			q.handle(ctx, msg, handler)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	waitDrained(sub, 5*time.Second)
	_ = jobs.Wait()
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// waitDrained returns once the subscription has delivered its pending
// messages or the limit elapses.
func waitDrained(sub *nats.Subscription, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}

func (q *Queue) handle(
	ctx context.Context,
	msg *nats.Msg,
	handler func(context.Context, domain.ExtractionJob) domain.ExtractionReply,
) {
	var job domain.ExtractionJob
	var reply domain.ExtractionReply
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		reply = domain.NewExtractionReply(nil, domain.WrapError(domain.ErrInvalidInput, "decode extraction job", err))
	} else {
		// In-flight jobs finish during shutdown; only the job timeout stops them.
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.jobTimeout)
		reply = handler(jobCtx, job)
		cancel()
	}

	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("extraction_reply_encode_failed", "job_id", job.ID, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error("extraction_reply_failed", "job_id", job.ID, "error", err)
	}
}
