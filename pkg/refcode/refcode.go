// Package refcode generates human-readable agent display codes.
// Codes are cosmetic: identity and all engine logic use the agent ID.
package refcode

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

const (
	prefix     = "AGT"
	codeLength = 6
)

// Generate returns a display code of the form AGT-XXXXXX where XXXXXX is
// 6 random uppercase base32 characters.
func Generate() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	code = strings.ToUpper(code)[:codeLength]

	return prefix + "-" + code, nil
}
