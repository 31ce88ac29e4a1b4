package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend.
//
// Example usage:
//
//	// Keys for a staging server sharing the production redis
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// IndexKey generates a prefixed index key.
func (k *ScopedKeyer) IndexKey(inputHash string, opts IndexKeyOpts) string {
	return k.prefix + k.inner.IndexKey(inputHash, opts)
}

// QueryKey generates a prefixed query key.
func (k *ScopedKeyer) QueryKey(indexID, kind, from, to string) string {
	return k.prefix + k.inner.QueryKey(indexID, kind, from, to)
}
