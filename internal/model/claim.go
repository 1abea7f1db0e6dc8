package model

// Verdict is the faithfulness judgment produced for a single claim
type Verdict struct {
	FaithfulnessScore float64 `json:"faithfulness_score"` // 0.0 (hallucinated) to 1.0 (fully grounded)
	RequiresRevision  bool    `json:"requires_revision"`  // Whether the claim should be rewritten
	Rationale         string  `json:"rationale"`          // Explanation for the decision
}

// Flagged reports whether the verdict should be surfaced as a likely hallucination
func (v Verdict) Flagged() bool {
	return v.RequiresRevision || v.FaithfulnessScore < 0.8
}

// Result pairs a claim with the verdict produced for it.
// Result order follows task completion, not document order; correlate by Claim.
type Result struct {
	Claim   string  `json:"claim"`
	Verdict Verdict `json:"verdict"`
}

// FallbackVerdict builds the safe sentinel verdict used when evaluation
// cannot produce a real judgment (parse failure, terminal remote error).
func FallbackVerdict(rationale string) Verdict {
	return Verdict{
		FaithfulnessScore: 0.0,
		RequiresRevision:  true,
		Rationale:         rationale,
	}
}
