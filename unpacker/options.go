package unpacker

import (
	"github.com/dendrascience/dataminer/util"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
)

const (
	// DefaultMaxArchiveDepth bounds how many archives may be nested inside
	// each other.
	DefaultMaxArchiveDepth = 16
	// DefaultMaxExpandedBytes bounds the uncompressed bytes written by one run.
	DefaultMaxExpandedBytes int64 = 8 << 30
)

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithTreeFile sets the cache record name inside the output directory.
func WithTreeFile(name string) Option {
	return func(u *Unpacker) {
		if name != "" {
			u.treeFile = name
		}
	}
}

// WithDigest selects the content digest algorithm.
func WithDigest(alg digest.Algorithm) Option {
	return func(u *Unpacker) {
		u.digest = alg
	}
}

// WithNameDecoder sets how legacy archive entry names are decoded.
func WithNameDecoder(d *util.NameDecoder) Option {
	return func(u *Unpacker) {
		u.names = d
	}
}

// WithMaxArchiveDepth limits archive nesting. Values <= 0 disable the limit.
func WithMaxArchiveDepth(n int) Option {
	return func(u *Unpacker) {
		u.maxDepth = n
	}
}

// WithMaxExpandedBytes limits the total uncompressed bytes of one run.
// Values <= 0 disable the limit.
func WithMaxExpandedBytes(n int64) Option {
	return func(u *Unpacker) {
		u.maxBytes = n
	}
}

// WithForce rebuilds over a cache record that belongs to another input
// instead of refusing.
func WithForce(force bool) Option {
	return func(u *Unpacker) {
		u.force = force
	}
}

// WithClean empties the output directory before a rebuild.
func WithClean(clean bool) Option {
	return func(u *Unpacker) {
		u.clean = clean
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(u *Unpacker) {
		if l != nil {
			u.log = l
		}
	}
}
