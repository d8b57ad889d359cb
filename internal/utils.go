package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Version is the application version reported by the CLI and HTTP API
const Version = "0.4.0"

// GenerateRecordID creates a unique ID for an item record based on timestamp and its description
// Format: epochMillis_md5(description)[:8]
func GenerateRecordID(description string) string {
	epochMillis := time.Now().UnixMilli()

	hash := md5.Sum([]byte(description))
	hashStr := hex.EncodeToString(hash[:])[:8]

	return fmt.Sprintf("%d_%s", epochMillis, hashStr)
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
