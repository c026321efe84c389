package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// CallContext carries per-call state through the hook pipeline. Hooks use it
// to find out which URL and rule produced the data they are looking at.
type CallContext struct {
	context.Context
	RequestID string
	Method    string
	URL       string
	StartTime time.Time
	Log       *zap.Logger

	// Pattern is the registry pattern that matched URL, empty when none did.
	Pattern string
	// OriginalData is the decoded response payload after response hooks.
	OriginalData any

	mu       sync.RWMutex
	metadata map[string]interface{}
}

// NewCallContext creates a CallContext with a fresh request id.
func NewCallContext(ctx context.Context, method, rawURL string, log *zap.Logger) *CallContext {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	return &CallContext{
		Context:   ctx,
		RequestID: id,
		Method:    method,
		URL:       rawURL,
		StartTime: time.Now(),
		Log:       logger.OrNop(log).With(logger.RequestID(id), logger.URL(rawURL)),
		metadata:  make(map[string]interface{}),
	}
}

// SetMetadata sets a metadata value (thread-safe)
func (c *CallContext) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[key] = value
}

// GetMetadata gets a metadata value (thread-safe)
func (c *CallContext) GetMetadata(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.metadata[key]
	return v, ok
}

// Metadata returns a copy of all metadata (thread-safe)
func (c *CallContext) Metadata() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		out[k] = v
	}
	return out
}
