package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

// maxRiskEntries caps how many assessments one analysis run may return.
const maxRiskEntries = 5

// errMalformedOutput marks model text that carried no parsable risk array.
// It never leaves the package: the orchestrator retries once with a
// corrective instruction and then degrades.
var errMalformedOutput = errors.New("malformed model output")

// riskItem is the wire shape of one entry in the model's risk array.
type riskItem struct {
	Disease string  `json:"disease"`
	Risk    flexInt `json:"risk"`
}

// flexInt absorbs the ways models write integers: bare numbers, floats and
// quoted digits. A value that is not numeric at all decodes to zero, the
// same floor an out-of-range score is clamped to.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// parseRiskList extracts and validates the JSON risk array from raw model
// text. Out-of-range scores are clamped rather than rejected: a partially
// credible answer is still worth showing. Duplicate diseases collapse
// case-insensitively into their highest score, keeping first-seen order,
// and at most maxRiskEntries survive.
func parseRiskList(raw string) ([]domain.RiskAssessment, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in response", errMalformedOutput)
	}

	var items []riskItem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedOutput, err)
	}

	out := make([]domain.RiskAssessment, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		disease := strings.TrimSpace(item.Disease)
		if disease == "" {
			continue
		}
		risk := int(item.Risk)
		if risk < 0 {
			risk = 0
		}
		if risk > 10 {
			risk = 10
		}

		key := strings.ToLower(disease)
		if i, seen := index[key]; seen {
			if risk > out[i].Risk {
				out[i].Risk = risk
			}
			continue
		}
		index[key] = len(out)
		out = append(out, domain.RiskAssessment{Disease: disease, Risk: risk})
	}

	if len(out) > maxRiskEntries {
		out = out[:maxRiskEntries]
	}
	return out, nil
}
