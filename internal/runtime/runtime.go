package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/gasdash/config"
	"golang.org/x/sync/semaphore"
)

// Limits captures the concurrency and time guardrails configured for the server.
type Limits struct {
	MaxConcurrentRequests int
	MaxConcurrentLoads    int

	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
	FetchTimeout          time.Duration
}

// NewLimits fills unset values from config defaults.
func NewLimits(maxConcurrentRequests, maxConcurrentLoads int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxConcurrentLoads <= 0 {
		maxConcurrentLoads = config.DefaultMaxConcurrentLoads
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxConcurrentLoads:    maxConcurrentLoads,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
		FetchTimeout:          config.DefaultFetchTimeout,
	}
}

// Controller coordinates the request and dataset-load semaphores.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
	loadSemaphore    *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		loadSemaphore:    semaphore.NewWeighted(int64(limits.MaxConcurrentLoads)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// TryAcquireRequest reserves capacity, waiting at most AcquireRequestTimeout.
func (c *Controller) TryAcquireRequest(ctx context.Context) error {
	if c.limits.AcquireRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.limits.AcquireRequestTimeout)
		defer cancel()
	}
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireLoad reserves a workbook load slot.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	return c.loadSemaphore.Acquire(ctx, 1)
}

// ReleaseLoad frees a workbook load slot.
func (c *Controller) ReleaseLoad() {
	c.loadSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
