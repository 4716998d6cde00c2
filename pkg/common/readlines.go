package common

import (
	"bufio"
	"os"
	"strings"
)

const maxLineSize = 1024 * 1024

// ReadAllLines reads all lines from the given path on disk. Windows line endings and a leading UTF-8 BOM are
// removed, so that files produced by other tools (for example, tokenizer vocabularies) can be read as is.
func ReadAllLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
