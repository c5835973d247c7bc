// internal/nlp/models.go
package nlp

import "context"

// Entity is one named-entity span returned by the NER capability.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"` // "ORG", "MISC", "NUM", "PER", "LOC", ...
}

// ModelPort is the single capability port the extractors depend on. It is
// injectable at construction so tests script model responses.
type ModelPort interface {
	NER(ctx context.Context, text string) ([]Entity, error)
	ExtractiveQA(ctx context.Context, question, contextText string) (string, error)
	ZeroShot(ctx context.Context, text string, labels []string) ([]string, error)
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerResponse struct {
	Entities []Entity `json:"entities"`
}

type qaRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaResponse struct {
	Answer string `json:"answer"`
}

type zeroShotRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type zeroShotResponse struct {
	// Labels ordered by descending confidence.
	Labels []string `json:"labels"`
}
