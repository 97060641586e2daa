package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusValid(t *testing.T) {
	valid := []LeadStatus{LeadStatusNotStarted, LeadStatusInProgress, LeadStatusDone, LeadStatusError}
	for _, s := range valid {
		assert.True(t, s.Valid(), string(s))
	}

	invalid := []LeadStatus{"", "pending", "NOT_STARTED", "complete"}
	for _, s := range invalid {
		assert.False(t, s.Valid(), string(s))
	}
}

func TestEmailDraftValid(t *testing.T) {
	tests := []struct {
		name  string
		draft EmailDraft
		want  bool
	}{
		{"both present", EmailDraft{Subject: "Hi", Body: "Hello there"}, true},
		{"missing subject", EmailDraft{Body: "Hello there"}, false},
		{"missing body", EmailDraft{Subject: "Hi"}, false},
		{"both empty", EmailDraft{}, false},
		{"whitespace only", EmailDraft{Subject: "  ", Body: "\n\t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.draft.Valid())
		})
	}
}
