// internal/message/message.go
//
// Cadastro – outbound message queue.
//
// Context
//   The publish action hands each accepted submission to a Queue.  Two
//   implementations exist: LogQueue writes the payload to the structured
//   log (the default, nothing leaves the process), and NATSQueue publishes
//   to a NATS subject when `nats.url` is configured.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Queue publishes an opaque payload under a subject.
type Queue interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// LogQueue records payloads in the log instead of sending them.
type LogQueue struct{ log *zap.SugaredLogger }

// NewLogQueue returns a LogQueue writing to log, or to zap.S() when nil.
func NewLogQueue(log *zap.SugaredLogger) *LogQueue {
	if log == nil {
		log = zap.S()
	}
	return &LogQueue{log: log}
}

// Publish implements Queue.
func (q *LogQueue) Publish(_ context.Context, subject string, payload []byte) error {
	q.log.Infow("queue publish", "subject", subject, "bytes", len(payload))
	return nil
}

// publisher is the slice of *nats.Conn the queue needs.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSQueue publishes to a NATS server.
type NATSQueue struct {
	conn  publisher
	close func()
}

// DialNATS connects to url and returns a queue.  Close it on shutdown.
func DialNATS(url, name string) (*NATSQueue, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect NATS %s: %w", url, err)
	}
	return &NATSQueue{conn: nc, close: nc.Close}, nil
}

// Publish implements Queue.  It flushes so a nil error means the server has
// the message.
func (q *NATSQueue) Publish(ctx context.Context, subject string, payload []byte) error {
	if err := q.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	// FlushWithContext refuses contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := q.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	return nil
}

// Close drops the connection.
func (q *NATSQueue) Close() {
	if q.close != nil {
		q.close()
	}
}
