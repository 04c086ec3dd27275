package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/rediminute/internal/core/domain"
)

// NamespaceSeparator joins a namespace and a key on the wire.
const NamespaceSeparator = domain.Separator

// DefaultTimeout bounds dialing and each request.
const DefaultTimeout = 5 * time.Second

// ErrInvalidNamespace is returned when a namespace contains the separator.
var ErrInvalidNamespace = errors.New("namespace must not contain " + NamespaceSeparator)

// Options configures a Client.
type Options struct {
	// Addr is the RESP listener address.
	Addr string
	// Namespace prefixes every key. Empty selects the global namespace.
	Namespace string
	// Timeout bounds dialing and each request. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// Client issues commands to a rediminute server.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient creates a client. The connection is made lazily.
func NewClient(opts Options) (*Client, error) {
	if strings.Contains(opts.Namespace, NamespaceSeparator) {
		return nil, ErrInvalidNamespace
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Protocol:        2,
		DisableIdentity: true,
		DialTimeout:     timeout,
		ReadTimeout:     timeout,
		WriteTimeout:    timeout,
		MaxRetries:      -1,
		PoolSize:        1,
	})
	return &Client{rdb: rdb, namespace: opts.Namespace}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Namespace returns the selected namespace.
func (c *Client) Namespace() string {
	return c.namespace
}

// Key returns the wire form of key in the selected namespace.
func (c *Client) Key(key string) string {
	if c.namespace == "" {
		return key
	}
	return domain.Key{Namespace: c.namespace, Name: key}.String()
}

// Ping returns the server's reply, echoing message when it is non-empty.
func (c *Client) Ping(ctx context.Context, message string) (string, error) {
	if message == "" {
		return c.rdb.Ping(ctx).Result()
	}
	return c.rdb.Do(ctx, "PING", message).Text()
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, c.Key(key), value, 0).Err()
}

// Get returns the value under key. found is false when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	value, err = c.rdb.Get(ctx, c.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Del removes key and reports whether it existed.
func (c *Client) Del(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, c.Key(key)).Result()
	return n > 0, err
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.Key(key)).Result()
	return n > 0, err
}

// Publish sends message on channel and returns the delivered count.
// Channels are not namespaced.
func (c *Client) Publish(ctx context.Context, channel, message string) (int64, error) {
	return c.rdb.Publish(ctx, channel, message).Result()
}

// Message is one received publication.
type Message struct {
	Channel string `json:"channel" yaml:"channel"`
	Payload string `json:"message" yaml:"message"`
}

// String renders the message for text output.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Channel, m.Payload)
}

// SubscribeHandler receives subscription events.
type SubscribeHandler struct {
	// OnSubscribe runs once per confirmed channel.
	OnSubscribe func(channel string, count int)
	// OnMessage runs for every publication. An error ends the subscription.
	OnMessage func(Message) error
	// Limit stops after that many messages when > 0.
	Limit int
}

// Subscribe joins channels and dispatches to h until ctx ends, the limit
// is reached or OnMessage fails.
func (c *Client) Subscribe(ctx context.Context, channels []string, h SubscribeHandler) error {
	if len(channels) == 0 {
		return errors.New("no channels given")
	}
	sub := c.rdb.Subscribe(ctx, channels...)
	defer sub.Close()

	for range channels {
		msg, err := sub.Receive(ctx)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		if s, ok := msg.(*redis.Subscription); ok && h.OnSubscribe != nil {
			h.OnSubscribe(s.Channel, s.Count)
		}
	}

	ch := sub.Channel()
	received := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed by server")
			}
			if h.OnMessage != nil {
				if err := h.OnMessage(Message{Channel: msg.Channel, Payload: msg.Payload}); err != nil {
					return err
				}
			}
			received++
			if h.Limit > 0 && received >= h.Limit {
				return nil
			}
		}
	}
}
