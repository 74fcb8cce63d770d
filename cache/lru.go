// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed view over a golang-lru cache.
type LRU[K comparable, V any] struct {
	inner *lru.Cache
}

// NewLRU creates a cache holding at most maxSize entries. maxSize must be > 0.
func NewLRU[K comparable, V any](maxSize int) (*LRU[K, V], error) {
	inner, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{inner}, nil
}

func (l *LRU[K, V]) Get(key K) (v V, ok bool) {
	raw, ok := l.inner.Get(key)
	if !ok {
		return v, false
	}
	return raw.(V), true
}

func (l *LRU[K, V]) Add(key K, v V) { l.inner.Add(key, v) }

func (l *LRU[K, V]) Contains(key K) bool { return l.inner.Contains(key) }

func (l *LRU[K, V]) Len() int { return l.inner.Len() }

// GetOrLoad returns the cached value of key, calling load on a miss.
// Failed loads are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.Add(key, v)
	return v, nil
}
