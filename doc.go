// Package duocache implements a two-tier key-value cache: a bounded,
// concurrent in-process LRU (internal/memtier) in front of a sqlite- and
// file-backed persistent tier (internal/disktier), composed into a single
// read-through/write-through facade with synchronous and callback-style
// asynchronous APIs.
//
// A Cache is opened either by name, which resolves to a conventional
// per-application cache directory, or by an absolute path:
//
//	c, err := duocache.Open("my-app", duocache.Codec{
//		Encode: func(v any) ([]byte, error) { return json.Marshal(v) },
//		Decode: func(b []byte) (any, error) {
//			var m map[string]any
//			return m, json.Unmarshal(b, &m)
//		},
//	})
//
// Only one process should own a given directory at a time; see the LOCK
// file written alongside manifest.db.
package duocache
