package disktier

import "github.com/pkg/errors"

// ErrBackendUnavailable is returned by Open when the manifest cannot be
// created or opened (§7: construction is the only point that fails hard).
var ErrBackendUnavailable = errors.New("disktier: backend unavailable")
