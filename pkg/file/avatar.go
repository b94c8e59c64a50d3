package file

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/sanitizer"
)

// AvatarKey builds avatars/<identity>/<random>-<filename>. The random part
// keeps CDN caches from serving a replaced avatar.
func AvatarKey(identityID uuid.UUID, filename string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "avatars/" + identityID.String() + "/" + hex.EncodeToString(b[:]) + "-" + sanitizer.SafeFilename(filename)
}

// AvatarPrefix is the key prefix owned by identityID.
func AvatarPrefix(identityID uuid.UUID) string {
	return "avatars/" + identityID.String() + "/"
}
