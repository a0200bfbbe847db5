package model

import "time"

// Verdict is the categorical outcome of comparing a claim against its evidence
type Verdict string

const (
	VerdictVerified          Verdict = "verified"           // ≥1 supporting, 0 contradicting
	VerdictPartiallyVerified Verdict = "partially_verified" // Supporting and contradicting both present
	VerdictUnverified        Verdict = "unverified"         // Evidence without clear support or contradiction
	VerdictContradicted      Verdict = "contradicted"       // Only contradicting evidence
)

// VerifiedClaim is a claim plus its evidence and scoring outcome
type VerifiedClaim struct {
	Claim      Claim      `json:"claim"`
	Evidence   []Evidence `json:"evidence"`
	Verdict    Verdict    `json:"verdict"`
	Confidence float64    `json:"confidence"` // [0,1]
	Rationale  string     `json:"rationale"`
}

// RunState tracks the analysis state machine
type RunState string

const (
	StateIngesting          RunState = "ingesting"
	StateNameResolved       RunState = "name_resolved"
	StateClaimsExtracted    RunState = "claims_extracted"
	StateEvidenceGathered   RunState = "evidence_gathered"
	StateScored             RunState = "scored"
	StateQuestionsGenerated RunState = "questions_generated"
	StateDone               RunState = "done"
	StateFailed             RunState = "failed"
)

// Provenance records how and when the analysis was produced
type Provenance struct {
	AnalyzedAt     time.Time     `json:"analyzed_at"`
	Duration       time.Duration `json:"duration"`
	LLMProvider    string        `json:"llm_provider"`
	LLMModel       string        `json:"llm_model,omitempty"`
	SearchProvider string        `json:"search_provider"`
}

// AnalysisResult is the complete, self-describing output of one analysis run.
// The host (report renderer, email delivery) needs no further queries back
// into the pipeline.
type AnalysisResult struct {
	CompanyName  string          `json:"company_name"`
	Filename     string          `json:"filename"`
	TotalPages   int             `json:"total_pages"`
	Sections     map[string]bool `json:"sections,omitempty"` // Deck section presence
	Claims       []VerifiedClaim `json:"claims"`
	Questions    []Question      `json:"questions"`
	OverallScore float64         `json:"overall_score"` // 0-100
	State        RunState        `json:"state"`
	FailureCause string          `json:"failure_cause,omitempty"`
	Provenance   Provenance      `json:"provenance"`
}
