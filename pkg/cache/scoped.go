package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several projects or
// users can share one Redis without seeing each other's results.
//
//	keyer := cache.NewScopedKeyer(nil, "team-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) RouteKey(graphHash, netlistHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(graphHash, netlistHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(routeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(routeHash, opts)
}

func (k *ScopedKeyer) DeviceKey(opts DeviceKeyOpts) string {
	return k.prefix + k.inner.DeviceKey(opts)
}
