package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

// ErrUnknownIntent is returned when dispatch is attempted for an intent type
// with no registered handler.
var ErrUnknownIntent = errors.New("unknown intent")

// Registry stores intent handlers keyed by the intent type they answer.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.IntentType]Handler
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.IntentType]Handler)}
}

// Register adds a handler. A later registration for the same intent type
// replaces the earlier one.
func (r *Registry) Register(handler Handler) {
	if handler == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Intent()] = handler
}

// Dispatch runs the handler registered for the request's intent type.
func (r *Registry) Dispatch(ctx context.Context, req *Request) (*Reply, error) {
	if r == nil {
		return nil, fmt.Errorf("intent registry is nil")
	}
	if req == nil || req.Result == nil {
		return nil, fmt.Errorf("dispatch needs a classified request")
	}

	handler := r.getHandler(req.Result.Intent)
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntent, req.Result.Intent)
	}

	return handler.Handle(ctx, req)
}

// Count returns the number of registered handlers.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func (r *Registry) getHandler(intent domain.IntentType) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[intent]
}
