package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

type KeyStrategy string

const (
	// KeysDeterministic derives keys from the reference and preview index, so
	// a redelivered event overwrites the objects of the earlier attempt.
	KeysDeterministic KeyStrategy = "deterministic"
	KeysRandom        KeyStrategy = "random"
)

var previewNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("frameflow/previews"))

func ParseKeyStrategy(s string) (KeyStrategy, error) {
	switch KeyStrategy(s) {
	case "", KeysDeterministic:
		return KeysDeterministic, nil
	case KeysRandom:
		return KeysRandom, nil
	}
	return "", fmt.Errorf("unknown preview key strategy %q", s)
}

func (k KeyStrategy) PreviewKeys(reference string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		if k == KeysRandom {
			keys[i] = uuid.New().String()
			continue
		}
		keys[i] = uuid.NewSHA1(previewNamespace, []byte(reference+"/"+strconv.Itoa(i))).String()
	}
	return keys
}

var unsafeExtChars = regexp.MustCompile(`[^A-Za-z0-9.+-]`)

const maxExtLen = 32

// scratchName maps a reference onto a single path element. Distinct
// references never share a name.
func scratchName(reference, ext string) string {
	sum := sha256.Sum256([]byte(reference))
	name := hex.EncodeToString(sum[:])
	ext = unsafeExtChars.ReplaceAllString(ext, "_")
	if len(ext) > maxExtLen {
		ext = ext[:maxExtLen]
	}
	if ext == "" {
		return name
	}
	return name + "." + ext
}
