package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

// ResourceKind selects the namespace a resource name is derived in.
type ResourceKind string

const (
	KindShare      ResourceKind = "share"
	KindShareGroup ResourceKind = "group"
)

// Array naming constraints: names are limited in length, use a restricted
// character set, and must start and end alphanumeric. Snapshot suffixes
// share the charset and live after a '.' in the snapshot name.
const (
	maxArrayNameLength = 63
	hashSuffixLength   = 8
)

// NameFor maps an orchestrator identifier onto an array resource name.
// The mapping is a pure function: deterministic, stable across retries,
// and collision-free for distinct (kind, id) pairs. Identifiers that fit
// the array's naming rules are kept verbatim under a kind prefix so
// operators can recognize them; anything else keeps a recognizable prefix
// of the identifier plus a short content hash.
func NameFor(kind ResourceKind, id string) (string, error) {
	cleaned := strings.TrimSpace(id)
	if cleaned == "" {
		return "", errors.Newf(errors.ErrCodeInvalidIdentifier, "empty %s identifier", kind)
	}

	sanitized := sanitizeName(cleaned)
	if sanitized == "" {
		return "", errors.Newf(errors.ErrCodeInvalidIdentifier, "identifier %q has no usable characters", id)
	}

	name := fmt.Sprintf("%s-%s", kind, sanitized)
	if sanitized == cleaned && len(name) <= maxArrayNameLength {
		return name, nil
	}

	// Lossy sanitization or overlength: disambiguate with a hash of the
	// original identifier so distinct ids cannot fold onto one name.
	digest := shortHash(cleaned)
	keep := maxArrayNameLength - len(kind) - len(digest) - 2
	if len(sanitized) > keep {
		sanitized = strings.TrimRight(sanitized[:keep], "-")
	}
	return fmt.Sprintf("%s-%s-%s", kind, sanitized, digest), nil
}

// SnapshotSuffix maps an orchestrator snapshot identifier onto the array
// snapshot suffix, under the same determinism and collision rules as
// NameFor. The full array snapshot name is "<filesystem>.<suffix>".
func SnapshotSuffix(id string) (string, error) {
	cleaned := strings.TrimSpace(id)
	if cleaned == "" {
		return "", errors.NewError(errors.ErrCodeInvalidIdentifier, "empty snapshot identifier")
	}

	sanitized := sanitizeName(cleaned)
	if sanitized == "" {
		return "", errors.Newf(errors.ErrCodeInvalidIdentifier, "snapshot identifier %q has no usable characters", id)
	}

	if sanitized == cleaned && len(sanitized) <= maxArrayNameLength {
		return sanitized, nil
	}

	digest := shortHash(cleaned)
	keep := maxArrayNameLength - len(digest) - 1
	if len(sanitized) > keep {
		sanitized = strings.TrimRight(sanitized[:keep], "-")
	}
	return fmt.Sprintf("%s-%s", sanitized, digest), nil
}

// sanitizeName reduces an identifier to the array charset: lowercase
// alphanumerics and single dashes, alphanumeric at both ends.
func sanitizeName(id string) string {
	var b strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func shortHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:hashSuffixLength]
}
