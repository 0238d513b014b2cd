package qa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const ExtractivePrompt = `You are an extractive question-answering model. Answer the question using only text copied verbatim from the context. Return a JSON object with these fields:

- "answer": the shortest exact substring of the context that answers the question (string)
- "score": your confidence that the answer is correct, from 0.0 to 1.0 (float)

Rules:
- Never rephrase or add words that are not in the context
- If the context does not contain the answer, still return the most plausible span with a low score

Respond with ONLY the JSON object, no other text.`

// BuildPrompt creates the user prompt for LLM-backed providers.
func BuildPrompt(question, passage string) string {
	var sb strings.Builder
	sb.WriteString("---\nContext:\n")
	sb.WriteString(passage)
	sb.WriteString("\n---\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", question))
	return sb.String()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// parseLLMAnswer decodes the JSON object an LLM provider returns.
func parseLLMAnswer(raw string) (Answer, error) {
	text := stripCodeBlock(raw)
	var out struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Answer{}, fmt.Errorf("parse answer json: %w (raw: %s)", err, truncate(text, 200))
	}
	return Answer{Text: strings.TrimSpace(out.Answer), Score: clampScore(out.Score)}, nil
}
