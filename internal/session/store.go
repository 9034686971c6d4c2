// File: internal/session/store.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry of live sessions. Only the immutable
// identity of a session is stored; its state stays with its handler.

package session

import (
	"hash/fnv"
	"sync"
	"time"
)

// Info is the immutable identity of a live session.
type Info struct {
	ID       string    `json:"id"`
	Remote   string    `json:"remote"`
	Started  time.Time `json:"started"`
	Deadline time.Time `json:"deadline"`
}

// InfoOf extracts the identity of s.
func InfoOf(s *Session) Info {
	return Info{ID: s.ID(), Remote: s.Remote(), Started: s.Started(), Deadline: s.Deadline()}
}

// Registry defines operations on live sessions.
type Registry interface {
	Add(info Info)
	Get(id string) (Info, bool)
	Delete(id string)
	Range(func(Info))
	Len() int
}

// registry implements sharded storage for sessions.
type registry struct {
	shards []*registryShard
	mask   uint32
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[string]Info
}

// NewRegistry constructs a sharded registry with shardCount shards.
func NewRegistry(shardCount int) Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	// find power-of-two shards for bitmasking
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{sessions: make(map[string]Info)}
	}
	return &registry{shards: shards, mask: m - 1}
}

func (r *registry) shard(id string) *registryShard {
	return r.shards[fnv32(id)&r.mask]
}

// Add stores info, replacing any entry with the same id.
func (r *registry) Add(info Info) {
	sh := r.shard(info.ID)
	sh.mu.Lock()
	sh.sessions[info.ID] = info
	sh.mu.Unlock()
}

// Get fetches a session if present.
func (r *registry) Get(id string) (Info, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	info, ok := sh.sessions[id]
	return info, ok
}

// Delete removes the session.
func (r *registry) Delete(id string) {
	sh := r.shard(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
}

// Range applies fn to all sessions.
func (r *registry) Range(fn func(Info)) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, info := range sh.sessions {
			fn(info)
		}
		sh.mu.RUnlock()
	}
}

// Len counts live sessions.
func (r *registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
