package state

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashedCacheDir derives a cache directory name from a content hash of
// name plus an optional qualifier, rather than plain string concatenation
// (original_source util/file_hash.py, util/name_hash.py). Used both for
// the per-title cache directory (§3 Lifecycle) and the SegmentedEncoder
// shard cache directory (§4.8 step 4), so two titles or two shard ranges
// that happen to share a long or path-hostile name never collide on disk
// and never exceed a filesystem's path-length limit.
func HashedCacheDir(name, qualifier string) string {
	h := sha1.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(qualifier))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
