package generation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the worker cannot accept another request.
var ErrQueueFull = errors.New("generation queue is full")

// Worker runs queued generation requests in the background.
type Worker struct {
	service   *Service
	queue     chan Request
	logger    zerolog.Logger
	timeout   time.Duration
	shutdownC chan struct{}
}

func NewWorker(service *Service, size int, timeout time.Duration, logger zerolog.Logger) *Worker {
	if size <= 0 {
		size = 16
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Worker{
		service:   service,
		queue:     make(chan Request, size),
		logger:    logger.With().Str("component", "generation_worker").Logger(),
		timeout:   timeout,
		shutdownC: make(chan struct{}),
	}
}

// Enqueue adds req without blocking.
func (w *Worker) Enqueue(req Request) error {
	select {
	case w.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Worker) Run() {
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("generation worker stopping")
			return
		case req := <-w.queue:
			w.handle(req)
		}
	}
}

func (w *Worker) handle(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	test, err := w.service.Generate(ctx, req)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_id", req.JobID).Str("user_id", req.UserID).Msg("queued generation failed")
		return
	}
	w.logger.Info().Str("job_id", req.JobID).Str("test_id", test.ID).Msg("queued generation finished")
}

func (w *Worker) Stop() {
	close(w.shutdownC)
}
