// Package redis owns the connection to the Redis server that holds browser
// sessions.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
	pingTimeout = 2 * time.Second
)

type Client struct {
	*goredis.Client
}

// New connects to Redis and fails unless the server answers a PING.
func New(ctx context.Context, addr, password string) (*Client, error) {
	c := &Client{Client: goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})}

	if err := c.Check(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", addr, err)
	}
	return c, nil
}

// Check pings the server, giving up after pingTimeout.
func (c *Client) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}
