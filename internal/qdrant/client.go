package qdrant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

const (
	// BackendName identifies this backend in logs and errors.
	BackendName = "qdrant"

	// DefaultHost is the default Qdrant host.
	DefaultHost = "localhost"

	// DefaultPort is the default Qdrant gRPC port.
	DefaultPort = 6334

	// DefaultTimeout is the default operation timeout.
	DefaultTimeout = 30 * time.Second
)

// ClientConfig holds configuration for the Qdrant client.
type ClientConfig struct {
	// Host is the Qdrant server host.
	Host string

	// Port is the Qdrant gRPC port.
	Port int

	// APIKey for authentication (optional).
	APIKey string

	// UseTLS enables TLS connection.
	UseTLS bool

	// Timeout for operations.
	Timeout time.Duration
}

// DefaultClientConfig returns sensible defaults for local development.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
	}
}

// Client is a read-only retrieval backend over Qdrant collections.
// Each index is a collection holding one point per document.
type Client struct {
	client *qdrant.Client
	config ClientConfig
	log    *logger.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient creates a new Qdrant client. The gRPC connection is dialed
// lazily, so an unreachable server surfaces on the first call.
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errors.BackendUnavailableError(BackendName,
			fmt.Errorf("failed to create qdrant client: %w", err))
	}

	return &Client{
		client: client,
		config: cfg,
		log:    log,
	}, nil
}

// Name returns the backend name.
func (c *Client) Name() string {
	return BackendName
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.client.Close()
}

// Ping verifies the Qdrant server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errClosed()
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reply, err := c.client.HealthCheck(ctx)
	if err != nil {
		return errors.BackendUnavailableError(BackendName, fmt.Errorf("health check failed: %w", err))
	}

	if reply.GetTitle() == "" {
		return errors.BackendUnavailableError(BackendName, fmt.Errorf("unexpected health check response"))
	}

	c.log.Debug("Qdrant reachable", "host", c.config.Host, "port", c.config.Port, "version", reply.GetVersion())
	return nil
}

func errClosed() error {
	return errors.BackendUnavailableError(BackendName, fmt.Errorf("client is closed"))
}

// classify maps a gRPC failure onto the application error codes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return errors.BackendUnavailableError(BackendName, fmt.Errorf("%s: %w", op, err))
	case codes.NotFound:
		return errors.Wrap(errors.CodeNotFound, op+": not found", err)
	default:
		return errors.BackendError(op+" failed", err)
	}
}
