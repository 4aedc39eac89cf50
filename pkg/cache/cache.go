// Package cache stores routing results and rendered reports between runs.
//
// Routing a large device takes minutes, and the result only depends on the
// graph, the netlist and the router options. The pipeline hashes the three,
// derives a key with a [Keyer] and looks the result up before routing.
//
// Three backends implement [Cache]:
//
//   - [FileCache] keeps one JSON file per entry under a directory (CLI default)
//   - [RedisCache] shares entries between machines through Redis
//   - [NullCache] stores nothing (caching disabled)
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes.
const (
	// TTLRoute is how long a routing result stays valid.
	TTLRoute = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered report stays valid.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLDevice is how long a generated device stays valid.
	TTLDevice = 30 * 24 * time.Hour
)

// Key prefixes, also used as the key type reported to cache hooks.
const (
	PrefixRoute    = "route"
	PrefixArtifact = "artifact"
	PrefixDevice   = "device"
)

// RouteKeyOpts are the router options that change a routing result.
type RouteKeyOpts struct {
	MaxIterations      int     `json:"max_iterations"`
	FirstIterPresFac   float64 `json:"first_iter_pres_fac"`
	InitialPresFac     float64 `json:"initial_pres_fac"`
	PresFacMult        float64 `json:"pres_fac_mult"`
	MaxPresFac         float64 `json:"max_pres_fac"`
	AccFac             float64 `json:"acc_fac"`
	BBFactor           int     `json:"bb_factor"`
	FixedBB            bool    `json:"fixed_bb"`
	AStarFac           float64 `json:"astar_fac"`
	BendCost           float64 `json:"bend_cost"`
	CostPolicy         string  `json:"cost_policy"`
	Lookahead          string  `json:"lookahead"`
	NetOrder           string  `json:"net_order"`
	IncrementalReroute bool    `json:"incremental_reroute"`
	MaxExpansions      int     `json:"max_expansions"`
	NetTimeout         string  `json:"net_timeout"`
	WirelengthAbort    float64 `json:"wirelength_abort"`
	Predictor          string  `json:"predictor"`
	Parallel           bool    `json:"parallel"`
}

// ArtifactKeyOpts identify one rendering of a routing result.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Nets   string `json:"nets,omitempty"` // net filter of tree renderings
}

// DeviceKeyOpts identify a generated device and netlist.
type DeviceKeyOpts struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ChannelWidth  int    `json:"channel_width"`
	SegmentLength int    `json:"segment_length"`
	Inputs        int    `json:"inputs"`
	Outputs       int    `json:"outputs"`
	FcIn          int    `json:"fc_in"`
	FcOut         int    `json:"fc_out"`
	Nets          int    `json:"nets"`
	MaxFanout     int    `json:"max_fanout"`
	Seed          uint64 `json:"seed"`
}

// Keyer derives cache keys. Keys start with one of the Prefix constants
// followed by a colon.
type Keyer interface {
	RouteKey(graphHash, netlistHash string, opts RouteKeyOpts) string
	ArtifactKey(routeHash string, opts ArtifactKeyOpts) string
	DeviceKey(opts DeviceKeyOpts) string
}

// DefaultKeyer hashes every key component with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey keys a routing result.
func (DefaultKeyer) RouteKey(graphHash, netlistHash string, opts RouteKeyOpts) string {
	return hashKey(PrefixRoute, graphHash, netlistHash, opts)
}

// ArtifactKey keys a rendered report of a routing result.
func (DefaultKeyer) ArtifactKey(routeHash string, opts ArtifactKeyOpts) string {
	return hashKey(PrefixArtifact, routeHash, opts)
}

// DeviceKey keys a generated device.
func (DefaultKeyer) DeviceKey(opts DeviceKeyOpts) string {
	return hashKey(PrefixDevice, opts)
}

// KeyType returns the prefix of key, or "unknown".
func KeyType(key string) string {
	for _, p := range []string{PrefixRoute, PrefixArtifact, PrefixDevice} {
		if i := strings.Index(key, p+":"); i >= 0 && (i == 0 || key[i-1] == ':') {
			return p
		}
	}
	return "unknown"
}
