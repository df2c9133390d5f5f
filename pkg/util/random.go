package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateTagID produces a printed tag identifier like QR-A1B2C3D4: the
// uppercased prefix, a dash, and the first 8 hex characters of a fresh UUID.
func GenerateTagID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), strings.ToUpper(hex[:8]))
}

// GeneratePairID produces a pair identifier like PAIR-A1B2C3D4.
func GeneratePairID() string {
	return GenerateTagID("PAIR")
}
