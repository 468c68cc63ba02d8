package event

import "time"

type busConfig struct {
	asyncQueueSize   int
	asyncWorkerCount int
	asyncTimeout     time.Duration
	panicHandler     PanicHandler
	errorHandler     ErrorHandler
	dropHandler      DropHandler
}

func defaultBusConfig() busConfig {
	return busConfig{
		asyncQueueSize:   256,
		asyncWorkerCount: 4,
		asyncTimeout:     5 * time.Second,
	}
}

// BusOption configures a bus.
type BusOption func(*busConfig)

// WithAsyncQueueSize sets the capacity of the async delivery queue.
func WithAsyncQueueSize(size int) BusOption {
	return func(c *busConfig) {
		if size > 0 {
			c.asyncQueueSize = size
		}
	}
}

// WithAsyncWorkerCount sets the number of async workers.
func WithAsyncWorkerCount(count int) BusOption {
	return func(c *busConfig) {
		if count > 0 {
			c.asyncWorkerCount = count
		}
	}
}

// WithAsyncTimeout bounds each async handler execution.
func WithAsyncTimeout(d time.Duration) BusOption {
	return func(c *busConfig) {
		if d > 0 {
			c.asyncTimeout = d
		}
	}
}

// WithPanicHandler sets the callback for panicking handlers.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// WithErrorHandler sets the callback for handlers that return an error.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		c.errorHandler = h
	}
}

// WithDropHandler sets the callback for async deliveries that could not be
// queued.
func WithDropHandler(h DropHandler) BusOption {
	return func(c *busConfig) {
		c.dropHandler = h
	}
}
