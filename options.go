// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package callq

import "github.com/joeycumines/logiface"

// DefaultPipeSize is the pipe buffer size requested for pipe notifiers.
// A marker is 8 bytes and at most one is outstanding per drain cycle, so
// one page is plenty.
const DefaultPipeSize = 4096

// NotifierKind selects the descriptor used to wake the consumer.
type NotifierKind int

const (
	// NotifierAuto uses eventfd on Linux and a pipe elsewhere.
	NotifierAuto NotifierKind = iota
	// NotifierPipe uses a non-blocking self-pipe.
	NotifierPipe
	// NotifierEventfd uses eventfd. Linux only; elsewhere creation fails
	// with errors.ErrUnsupported.
	NotifierEventfd
)

func (k NotifierKind) String() string {
	switch k {
	case NotifierAuto:
		return "auto"
	case NotifierPipe:
		return "pipe"
	case NotifierEventfd:
		return "eventfd"
	default:
		return "unknown"
	}
}

// Options configures channel creation.
type Options struct {
	capacity int // Must be a power of 2
	notifier NotifierKind
	pipeSize int
	logger   *logiface.Logger[logiface.Event]
}

// Builder creates channels with fluent configuration.
//
// Example:
//
//	// eventfd on Linux, pipe elsewhere
//	ch, err := callq.New(1024).Build()
//
//	// Pipe notifier with a logger attached
//	ch, err := callq.New(1024).Pipe().Logger(logger).Build()
type Builder struct {
	opts Options
}

// New creates a channel builder with the given ring capacity.
//
// Capacity must be a power of 2; Build reports ErrInvalidCapacity
// otherwise. At most capacity-1 calls can be pending at once.
func New(capacity int) *Builder {
	return &Builder{opts: Options{
		capacity: capacity,
		pipeSize: DefaultPipeSize,
	}}
}

// Pipe selects a pipe notifier.
func (b *Builder) Pipe() *Builder {
	b.opts.notifier = NotifierPipe
	return b
}

// Notifier selects the notifier kind.
func (b *Builder) Notifier(kind NotifierKind) *Builder {
	b.opts.notifier = kind
	return b
}

// PipeSize sets the pipe buffer size requested on platforms that support
// resizing. Zero keeps the system default. Ignored for eventfd.
func (b *Builder) PipeSize(n int) *Builder {
	b.opts.pipeSize = n
	return b
}

// Logger attaches a structured logger. Only failures and lifecycle events
// are logged; nil disables logging.
func (b *Builder) Logger(l *logiface.Logger[logiface.Event]) *Builder {
	b.opts.logger = l
	return b
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
