package logsink

import (
	"context"
	"fmt"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Client sends individual records, mirroring a plain PUSH logger.
type Client struct {
	sock zmq4.Socket
}

func Dial(ctx context.Context, address string) (*Client, error) {
	if address == "" {
		address = DefaultAddress
	}
	sock := zmq4.NewPush(ctx, zmq4.WithDialerRetry(250*time.Millisecond))
	if err := sock.Dial(address); err != nil {
		sock.Close()
		return nil, fmt.Errorf("dial log server %s: %w", address, err)
	}
	return &Client{sock: sock}, nil
}

// Log sends one record with the given level, message and extra fields.
func (c *Client) Log(level, message string, extra map[string]any) error {
	now := time.Now()
	b, err := Encode(Record{Level: level, Message: message, Time: &now, Extra: extra})
	if err != nil {
		return err
	}
	return c.sock.Send(zmq4.NewMsg(b))
}

func (c *Client) Close() error {
	return c.sock.Close()
}
