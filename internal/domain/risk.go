package domain

// RiskAssessment is one validated entry from a risk analysis run. The risk
// score is always within 0 to 10 inclusive.
type RiskAssessment struct {
	Disease string `json:"disease"`
	Risk    int    `json:"risk"`
}

// RiskOutcome tells apart a real assessment, a run that produced no usable
// findings, and a run where the model output could not be evaluated at all.
type RiskOutcome string

const (
	RiskEvaluated  RiskOutcome = "evaluated"
	RiskNoFindings RiskOutcome = "no_findings"
	RiskDegraded   RiskOutcome = "degraded"
)
