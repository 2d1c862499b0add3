package annot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// jsonMarshal is a variable to allow testing of marshal errors.
var jsonMarshal = json.Marshal

// Hashes holds the SHA-256 and BLAKE3 digests of the same bytes.
type Hashes struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// HashBytes computes both digests of data as hex strings.
func HashBytes(data []byte) Hashes {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return Hashes{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
	}
}

// Matches reports whether data hashes to h. Empty digests never match.
func (h Hashes) Matches(data []byte) bool {
	if h.SHA256 == "" || h.BLAKE3 == "" {
		return false
	}
	return h == HashBytes(data)
}

// ContentHashes hashes the document text alone.
func ContentHashes(d *Document) Hashes {
	return HashBytes([]byte(d.content))
}

// Fingerprint hashes the document's serialized snapshot: content, features,
// and every set with its annotations. Two documents with the same snapshot
// have the same fingerprint.
func Fingerprint(d *Document) (Hashes, error) {
	data, err := jsonMarshal(d.Snapshot())
	if err != nil {
		return Hashes{}, err
	}
	return HashBytes(data), nil
}
