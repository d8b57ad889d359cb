package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// ReadItemsFile reads invoice items from a file, one per line.
// Supports formats:
// - Description only: "Steel bolt M8" (item code is the line number)
// - With item code: "B-100 = Steel bolt M8"
// - Code with empty description: "B-100 =" (kept, it fails as "no text")
// Blank lines and lines starting with '#' are skipped.
func ReadItemsFile(filename string) ([]translation.Item, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer file.Close()

	return ParseItems(file)
}

// ParseItems parses the batch format from r
func ParseItems(r io.Reader) ([]translation.Item, error) {
	var items []translation.Item

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		code := strconv.Itoa(lineNo)
		description := line

		if before, after, found := strings.Cut(line, "="); found {
			if c := strings.TrimSpace(before); c != "" {
				code = c
			}
			description = strings.TrimSpace(after)
		}

		items = append(items, translation.Item{ID: code, Text: description})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return items, nil
}
