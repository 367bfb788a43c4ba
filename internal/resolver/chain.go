package resolver

import (
	"context"
	"log"
	"strings"
)

// Strategy is one rung of the fallback ladder: a named fetch that may come
// back empty or fail.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context) (string, error)
}

// firstPresent walks the strategies in order and returns the first
// non-empty answer with its source name. Errors only skip a rung.
func firstPresent(ctx context.Context, strategies []Strategy) (string, string) {
	for _, s := range strategies {
		answer, err := s.Fetch(ctx)
		if err != nil {
			log.Printf("resolver: %s source failed: %v", s.Name, err)
			continue
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, s.Name
		}
	}
	return "", ""
}
