package commands

import (
	"fmt"
	"time"

	"cipherchat/internal/domain"
)

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("--timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--timeout must be positive, got %s", s)
	}
	return d, nil
}

func speaker(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "assistant"
	}
	return "you"
}

func stamp(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
