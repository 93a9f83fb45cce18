package logsink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/sirupsen/logrus"
)

// Hook forwards logrus entries to the logging server. Fire never blocks:
// when the buffer is full the entry is dropped and counted.
type Hook struct {
	address string
	levels  []logrus.Level
	queue   chan []byte
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHook starts the sender goroutine. The PUSH socket is dialed lazily so a
// logging server that comes up later is still picked up.
func NewHook(address string, buffer int) *Hook {
	if address == "" {
		address = DefaultAddress
	}
	if buffer <= 0 {
		buffer = 1024
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hook{
		address: address,
		levels:  logrus.AllLevels,
		queue:   make(chan []byte, buffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hook) Levels() []logrus.Level { return h.levels }

func (h *Hook) Fire(e *logrus.Entry) error {
	b, err := Encode(FromEntry(e))
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	select {
	case h.queue <- b:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many entries were discarded.
func (h *Hook) Dropped() int64 { return h.dropped.Load() }

// Close flushes what is queued, waiting at most timeout.
func (h *Hook) Close(timeout time.Duration) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	select {
	case <-h.done:
	case <-time.After(timeout):
	}
	h.cancel()
}

func (h *Hook) run() {
	defer close(h.done)
	var sock zmq4.Socket
	defer func() {
		if sock != nil {
			sock.Close()
		}
	}()

	for b := range h.queue {
		if sock == nil {
			s := zmq4.NewPush(h.ctx, zmq4.WithDialerRetry(250*time.Millisecond))
			if err := s.Dial(h.address); err != nil {
				s.Close()
				h.dropped.Add(1)
				continue
			}
			sock = s
		}
		if err := sock.Send(zmq4.NewMsg(b)); err != nil {
			h.dropped.Add(1)
			sock.Close()
			sock = nil
		}
	}
}
