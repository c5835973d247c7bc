// internal/assistant/extract/amount_test.go
package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"erp-assistant/internal/common/logger"
)

func TestAmountExtractor_Extract(t *testing.T) {
	tests := []struct {
		name      string
		port      *fakePort
		wantValue float64
		wantFound bool
	}{
		{
			name:      "plain answer span",
			port:      &fakePort{answer: "500 riyals"},
			wantValue: 500,
			wantFound: true,
		},
		{
			name:      "answer with thousands separator",
			port:      &fakePort{answer: "about 1,250 SAR"},
			wantValue: 1250,
			wantFound: true,
		},
		{
			name:      "answer without digits",
			port:      &fakePort{answer: "some money"},
			wantFound: false,
		},
		{
			name:      "empty answer",
			port:      &fakePort{answer: ""},
			wantFound: false,
		},
		{
			name:      "zero is rejected",
			port:      &fakePort{answer: "0"},
			wantFound: false,
		},
		{
			name:      "qa failure degrades to absent",
			port:      &fakePort{qaErr: errors.New("model offline")},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewAmountExtractor(tt.port, logger.NewNoOpLogger())
			value, found := e.Extract(context.Background(), "the amount I need is 500 riyals")

			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantValue, value)
			} else {
				assert.Zero(t, value)
			}
		})
	}
}
