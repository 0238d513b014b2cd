package qa

import (
	"context"
	"strings"
	"unicode"
)

// Mock answers with the first question word that also appears in the
// context. It needs no model and is deterministic.
type Mock struct{}

func (Mock) Answer(ctx context.Context, question, passage string) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	words := strings.Fields(passage)
	for _, q := range strings.Fields(question) {
		q = trimPunct(strings.ToLower(q))
		if q == "" {
			continue
		}
		for _, w := range words {
			w = trimPunct(w)
			if strings.ToLower(w) == q {
				return Answer{Text: w, Score: 0.5}, nil
			}
		}
	}
	return Answer{}, nil
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, unicode.IsPunct)
}
