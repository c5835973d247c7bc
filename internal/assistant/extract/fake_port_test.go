// internal/assistant/extract/fake_port_test.go
package extract

import (
	"context"

	"erp-assistant/internal/nlp"
)

// fakePort scripts model responses so extractor behavior is deterministic.
type fakePort struct {
	entities []nlp.Entity
	nerErr   error

	answer string
	qaErr  error

	labels []string
	zsErr  error

	nerCalls int
	qaCalls  int
	zsCalls  int

	lastZeroShotText   string
	lastZeroShotLabels []string
}

func (f *fakePort) NER(ctx context.Context, text string) ([]nlp.Entity, error) {
	f.nerCalls++
	if f.nerErr != nil {
		return nil, f.nerErr
	}
	return f.entities, nil
}

func (f *fakePort) ExtractiveQA(ctx context.Context, question, contextText string) (string, error) {
	f.qaCalls++
	if f.qaErr != nil {
		return "", f.qaErr
	}
	return f.answer, nil
}

func (f *fakePort) ZeroShot(ctx context.Context, text string, labels []string) ([]string, error) {
	f.zsCalls++
	f.lastZeroShotText = text
	f.lastZeroShotLabels = labels
	if f.zsErr != nil {
		return nil, f.zsErr
	}
	return f.labels, nil
}
