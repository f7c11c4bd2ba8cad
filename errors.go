package duocache

import (
	"github.com/pkg/errors"

	"github.com/duocache/duocache/internal/disktier"
)

// ErrNotFound is the sentinel delivered to async callbacks when a key is
// absent, per §4.F / §7 ("Callbacks for missing keys receive a sentinel
// not-found value"). Synchronous calls use the usual (value, ok) idiom
// instead.
var ErrNotFound = errors.New("duocache: not found")

// ErrBackendUnavailable is returned by Open/OpenPath when the disk tier's
// manifest cannot be created or opened. Construction is the only point at
// which this package fails hard (§7).
var ErrBackendUnavailable = disktier.ErrBackendUnavailable
