package queue

import (
	"sync"

	"github.com/erp/posbridge/internal/domain/shared"
)

// HandlerRegistry maps task types to their handlers
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]shared.TaskHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]shared.TaskHandler),
	}
}

// Register binds handler to taskType, replacing any previous binding
func (r *HandlerRegistry) Register(taskType string, handler shared.TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[taskType] = handler
}

// Get returns the handler for taskType
func (r *HandlerRegistry) Get(taskType string) (shared.TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}

// Types returns the registered task types
func (r *HandlerRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
