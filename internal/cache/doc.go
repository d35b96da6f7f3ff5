// Package cache provides the shared cache used by the introspection auth
// provider.
//
// Two backends are available: an in-process TTL-bounded LRU for single
// instance deployments and Redis for deployments where introspection
// results should be shared across replicas. TTL expiry is enforced by the
// cache itself, not by its callers. All implementations are safe for
// concurrent use; reads and writes of distinct keys do not interfere.
package cache
