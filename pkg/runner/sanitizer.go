package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxTaskSize is 4KB.
	DefaultMaxTaskSize = 4096
	// EnvMaxTaskSize overrides DefaultMaxTaskSize.
	EnvMaxTaskSize = "FOREMAN_MAX_INPUT_SIZE"
)

var (
	ErrEmptyTask    = errors.New("task is empty")
	ErrTaskTooLarge = errors.New("task exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("task contains invalid UTF-8 sequences")
)

// SanitizeTask validates a task received from a client before a run starts.
// Oversized or non-UTF-8 input is rejected, unsafe control characters
// (ESC, NUL, BEL, ...) are stripped and surrounding whitespace is trimmed.
// A task that is empty after cleaning is rejected with ErrEmptyTask.
func SanitizeTask(task string) (string, error) {
	limit := maxTaskSize()
	if len(task) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTaskTooLarge, len(task), limit)
	}
	if !utf8.ValidString(task) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(task, isUnsafeControl) >= 0 {
		task = strings.Map(func(r rune) rune {
			if isUnsafeControl(r) {
				return -1
			}
			return r
		}, task)
	}

	task = strings.TrimSpace(task)
	if task == "" {
		return "", ErrEmptyTask
	}
	return task, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxTaskSize() int {
	if val := os.Getenv(EnvMaxTaskSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTaskSize
}
