package cache

import "fmt"

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey returns the key of a generated graph.
	GraphKey(opts GraphKeyOpts) string
	// ArtifactKey returns the key of a rendering of the graph whose JSON
	// hashes to graphHash.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts is everything that determines a generated graph.
type GraphKeyOpts struct {
	Kind         string  `json:"kind"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Depth        int     `json:"depth"`
	Spacing      float64 `json:"spacing"`
	Positioning  bool    `json:"positioning"`
	Connectivity int     `json:"connectivity,omitempty"`
	Radius       float64 `json:"radius,omitempty"`
	Metric       string  `json:"metric,omitempty"`
}

// ArtifactKeyOpts is everything that determines a rendering.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes the options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(opts GraphKeyOpts) string {
	return hashKey("graph", opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return fmt.Sprintf("artifact:%s:%s", opts.Format, hashKey(graphHash, opts))
}
