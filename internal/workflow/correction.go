package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/innovacall/review-portal/internal/models"
)

// Decision is the precorrection gate outcome chosen by a reviewer
type Decision string

const (
	DecisionApprove    Decision = "approve"
	DecisionCorrection Decision = "correction"
	DecisionReject     Decision = "reject"
)

// PrecorrectionInput carries a reviewer's gate decision over a submission
type PrecorrectionInput struct {
	Decision     Decision `json:"decision"`
	Observations string   `json:"observations,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Documents    []string `json:"documents,omitempty"`
}

// Validate enforces the decision payload rules: correction and reject both
// require observations, and correction must flag at least one field or
// document to fix.
func (in *PrecorrectionInput) Validate() error {
	switch in.Decision {
	case DecisionApprove:
		return nil
	case DecisionCorrection:
		if strings.TrimSpace(in.Observations) == "" {
			return fmt.Errorf("%w: correction requires observations", ErrInvalidDecision)
		}
		if len(in.Fields) == 0 && len(in.Documents) == 0 {
			return fmt.Errorf("%w: correction requires at least one flagged field or document", ErrInvalidDecision)
		}
		return nil
	case DecisionReject:
		if strings.TrimSpace(in.Observations) == "" {
			return fmt.Errorf("%w: reject requires observations", ErrInvalidDecision)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown decision %q", ErrInvalidDecision, in.Decision)
	}
}

// Event returns the status machine event for the decision
func (in *PrecorrectionInput) Event() Event {
	switch in.Decision {
	case DecisionCorrection:
		return EventRequestCorrection
	case DecisionReject:
		return EventPrecorrectionReject
	default:
		return EventPrecorrectionApprove
	}
}

// CorrectionRequest builds the record stored on the project when the
// decision asks for corrections.
func (in *PrecorrectionInput) CorrectionRequest(requestedBy string, at time.Time) *models.CorrectionRequest {
	return &models.CorrectionRequest{
		Observations: in.Observations,
		RequestedBy:  requestedBy,
		RequestedAt:  at,
		Fields:       in.Fields,
		Documents:    in.Documents,
	}
}

// AppendCorrectedDocuments adds the resubmitted documents to the project's
// document list. Originals are never removed or overwritten; corrected
// copies are appended and flagged.
func AppendCorrectedDocuments(p *models.Project, docs []models.Document, at time.Time) {
	for _, d := range docs {
		d.Corrected = true
		if d.UploadedAt.IsZero() {
			d.UploadedAt = at
		}
		p.Documents = append(p.Documents, d)
	}

	if p.Correction != nil {
		p.Correction.SubmittedAt = &at
	}
}
