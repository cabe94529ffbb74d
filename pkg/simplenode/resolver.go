package simplenode

import (
	"sync"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Resolver serves fn:doc and fn:collection from documents registered in
// memory. It is safe for concurrent use.
type Resolver struct {
	mu          sync.RWMutex
	docs        map[string]*Node
	collections map[string][]*Node
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		docs:        make(map[string]*Node),
		collections: make(map[string][]*Node),
	}
}

// AddDocument registers doc under uri.
func (r *Resolver) AddDocument(uri string, doc *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[uri] = doc
}

// AddCollection registers nodes as the collection named uri. The empty URI
// names the default collection.
func (r *Resolver) AddCollection(uri string, nodes ...*Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[uri] = append(r.collections[uri], nodes...)
}

// Document returns the document registered under uri.
func (r *Resolver) Document(uri string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[uri]
	if !ok {
		return nil, types.Errorf(types.ErrDocRetrieval, "document %q not found", uri)
	}
	return doc, nil
}

// Collection returns the nodes registered under uri.
func (r *Resolver) Collection(uri string) ([]*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes, ok := r.collections[uri]
	if !ok {
		return nil, types.Errorf(types.ErrDocRetrieval, "collection %q not found", uri)
	}
	return nodes, nil
}
