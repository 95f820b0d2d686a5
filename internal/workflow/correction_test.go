package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/models"
)

func TestPrecorrectionInputValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      PrecorrectionInput
		wantErr bool
	}{
		{
			name: "approve needs nothing else",
			in:   PrecorrectionInput{Decision: DecisionApprove},
		},
		{
			name: "correction with observations and flagged field",
			in: PrecorrectionInput{
				Decision:     DecisionCorrection,
				Observations: "budget table is incomplete",
				Fields:       []string{"budget"},
			},
		},
		{
			name: "correction with flagged document only",
			in: PrecorrectionInput{
				Decision:     DecisionCorrection,
				Observations: "pitch deck missing slides",
				Documents:    []string{"doc-1"},
			},
		},
		{
			name:    "correction without observations",
			in:      PrecorrectionInput{Decision: DecisionCorrection, Fields: []string{"budget"}},
			wantErr: true,
		},
		{
			name:    "correction with whitespace observations",
			in:      PrecorrectionInput{Decision: DecisionCorrection, Observations: "   ", Fields: []string{"budget"}},
			wantErr: true,
		},
		{
			name:    "correction with nothing flagged",
			in:      PrecorrectionInput{Decision: DecisionCorrection, Observations: "fix it"},
			wantErr: true,
		},
		{
			name: "reject with observations",
			in:   PrecorrectionInput{Decision: DecisionReject, Observations: "out of scope for this call"},
		},
		{
			name:    "reject without observations",
			in:      PrecorrectionInput{Decision: DecisionReject},
			wantErr: true,
		},
		{
			name:    "unknown decision",
			in:      PrecorrectionInput{Decision: "escalate"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDecision)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrecorrectionInputEvent(t *testing.T) {
	assert.Equal(t, EventPrecorrectionApprove, (&PrecorrectionInput{Decision: DecisionApprove}).Event())
	assert.Equal(t, EventRequestCorrection, (&PrecorrectionInput{Decision: DecisionCorrection}).Event())
	assert.Equal(t, EventPrecorrectionReject, (&PrecorrectionInput{Decision: DecisionReject}).Event())
}

func TestAppendCorrectedDocuments(t *testing.T) {
	now := time.Now().UTC()
	p := &models.Project{
		ID: "p1",
		Documents: []models.Document{
			{ID: "orig", Name: "pitch.pdf", RequirementType: "pitch"},
		},
		Correction: &models.CorrectionRequest{
			Observations: "pitch deck missing slides",
			RequestedBy:  "rev-1",
			RequestedAt:  now.Add(-time.Hour),
		},
	}

	AppendCorrectedDocuments(p, []models.Document{
		{ID: "fixed", Name: "pitch-v2.pdf", RequirementType: "pitch"},
	}, now)

	require.Len(t, p.Documents, 2)
	assert.Equal(t, "orig", p.Documents[0].ID)
	assert.False(t, p.Documents[0].Corrected, "original must stay untouched")
	assert.Equal(t, "fixed", p.Documents[1].ID)
	assert.True(t, p.Documents[1].Corrected)

	require.NotNil(t, p.Correction.SubmittedAt)
	assert.Equal(t, now, *p.Correction.SubmittedAt)
}
