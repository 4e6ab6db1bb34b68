package broker

import (
	"sync"

	"chat-video/contract"
	"chat-video/domain"
	"chat-video/errors"
)

type Set map[string]struct{}

// binding is one live, authenticated connection.
type binding struct {
	principal domain.Principal
	sink      contract.EventSink
}

// Registry tracks live connections. Each connection is bound to exactly one
// principal at handshake; one user may hold several concurrent connections.
// All maps are guarded by a single mutex so readers always see a consistent
// snapshot, never a partially added or removed entry.
type Registry struct {
	mu         sync.RWMutex
	conns      map[string]binding // connection id -> bound principal + sink
	userConns  map[string]Set     // user name -> connection ids
	topicSubs  map[string]Set     // topic -> subscribed connection ids
	connTopics map[string]Set     // connection id -> topics, for cheap cleanup
}

func NewRegistry() *Registry {
	return &Registry{
		conns:      make(map[string]binding),
		userConns:  make(map[string]Set),
		topicSubs:  make(map[string]Set),
		connTopics: make(map[string]Set),
	}
}

// Bind records the principal for a connection. A connection may be bound at
// most once; a second bind is rejected rather than overwritten, because the
// handshake is a one-shot gate.
func (r *Registry) Bind(connectionID string, principal domain.Principal, sink contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connectionID]; ok {
		return errors.ErrAlreadyBound
	}
	r.conns[connectionID] = binding{principal: principal, sink: sink}

	user := principal.Name()
	if _, ok := r.userConns[user]; !ok {
		r.userConns[user] = make(Set)
	}
	r.userConns[user][connectionID] = struct{}{}
	return nil
}

// Unbind removes a connection and all of its subscriptions. It is idempotent:
// transport close and handshake rejection may both call it.
// No empty sets are left behind, to avoid leaking room for dead users.
func (r *Registry) Unbind(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bound, ok := r.conns[connectionID]
	if !ok {
		return
	}
	delete(r.conns, connectionID)

	user := bound.principal.Name()
	if conns, ok := r.userConns[user]; ok {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(r.userConns, user)
		}
	}

	for topic := range r.connTopics[connectionID] {
		if subs, ok := r.topicSubs[topic]; ok {
			delete(subs, connectionID)
			if len(subs) == 0 {
				delete(r.topicSubs, topic)
			}
		}
	}
	delete(r.connTopics, connectionID)
}

// Principal returns the identity bound to a connection, if any.
func (r *Registry) Principal(connectionID string) (domain.Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bound, ok := r.conns[connectionID]
	return bound.principal, ok
}

// ConnectionsFor answers "is user U currently connected, and where".
// The result may be empty (offline) or hold several ids (multi-device).
func (r *Registry) ConnectionsFor(user string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id := range r.userConns[user] {
		ids = append(ids, id)
	}
	return ids
}

// SinksForUser resolves every live connection of one user into its sink.
func (r *Registry) SinksForUser(user string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for id := range r.userConns[user] {
		if bound, ok := r.conns[id]; ok {
			sinks = append(sinks, bound.sink)
		}
	}
	return sinks
}

// Subscribe registers a connection on a broadcast topic. Subscribing an
// unbound connection is a no-op: only authenticated connections receive
// traffic.
func (r *Registry) Subscribe(connectionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connectionID]; !ok {
		return
	}
	if _, ok := r.topicSubs[topic]; !ok {
		r.topicSubs[topic] = make(Set)
	}
	r.topicSubs[topic][connectionID] = struct{}{}

	if _, ok := r.connTopics[connectionID]; !ok {
		r.connTopics[connectionID] = make(Set)
	}
	r.connTopics[connectionID][topic] = struct{}{}
}

// Unsubscribe removes a connection from one topic.
func (r *Registry) Unsubscribe(connectionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subs, ok := r.topicSubs[topic]; ok {
		delete(subs, connectionID)
		if len(subs) == 0 {
			delete(r.topicSubs, topic)
		}
	}
	if topics, ok := r.connTopics[connectionID]; ok {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(r.connTopics, connectionID)
		}
	}
}

// SinksForTopic resolves the current subscribers of a topic.
func (r *Registry) SinksForTopic(topic string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for id := range r.topicSubs[topic] {
		if bound, ok := r.conns[id]; ok {
			sinks = append(sinks, bound.sink)
		}
	}
	return sinks
}

// Size returns the number of live bound connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
