package relevance

import "github.com/dgallion1/docqa/internal/document"

// Match is the chunk picked for a question and its overlap score.
type Match struct {
	Chunk document.Chunk
	Score int
}

// Select returns the chunk sharing the most distinct normalized tokens with
// the question. A chunk must share at least one token to be picked; on equal
// scores the earliest chunk wins. ok is false when nothing overlaps or
// chunks is empty.
//
// This is lexical matching only: plural and singular forms, synonyms and
// trailing punctuation all count as different tokens.
func Select(question string, chunks []document.Chunk) (m Match, ok bool) {
	q := Tokenize(question)
	if len(q) == 0 {
		return Match{}, false
	}

	best := 0
	for _, c := range chunks {
		score := q.Overlap(Tokenize(c.Text))
		if score > best {
			best = score
			m = Match{Chunk: c, Score: score}
			ok = true
		}
	}
	return m, ok
}
