// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package codec

import (
	"log/slog"
	"sort"
	"sync"
)

// Factory rebuilds one product from its fields.
type Factory func(in *ProductReader) (any, error)

// Reader binds a fully qualified product key to its factory. Arity is the
// field count the factory expects, or AnyArity.
type Reader struct {
	Key     string
	Arity   int
	Factory Factory
}

// Registry maps product keys to their readers. It is built once at start-up
// and handed to every Decoder explicitly. Registration is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	namespace string
	readers   map[string]Reader
	logger    *slog.Logger
}

// NewRegistry creates a registry for the given default namespace and
// registers readers in order. It stops at the first duplicate key.
func NewRegistry(namespace string, readers ...Reader) (*Registry, error) {
	r := &Registry{
		namespace: namespace,
		readers:   make(map[string]Reader, len(readers)),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, rd := range readers {
		if err := r.Register(rd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on a configuration error.
// It is meant for package-level initialisation of static reader lists.
func MustNewRegistry(namespace string, readers ...Reader) *Registry {
	r, err := NewRegistry(namespace, readers...)
	if err != nil {
		panic(err)
	}
	return r
}

// SetLogger sets the logger that receives registration diagnostics. A nil
// logger silences them. The registry starts silent.
func (r *Registry) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Register adds a reader. Registering a key that is already present fails
// with a ConfigurationError and keeps the earlier reader.
func (r *Registry) Register(rd Reader) error {
	if rd.Key == "" || rd.Factory == nil {
		return &ConfigurationError{Key: rd.Key, Err: ErrBadValue}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.readers[rd.Key]; exists {
		return &ConfigurationError{Key: rd.Key, Err: ErrDuplicateKey}
	}
	r.logger.Debug("Registering product reader.", "key", rd.Key, "arity", rd.Arity)
	r.readers[rd.Key] = rd
	return nil
}

// Lookup returns the reader registered for a fully qualified key.
func (r *Registry) Lookup(key string) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.readers[key]
	return rd, ok
}

// Namespace returns the default key namespace.
func (r *Registry) Namespace() string { return r.namespace }

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.readers))
	for k := range r.readers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
