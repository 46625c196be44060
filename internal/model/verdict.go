package model

// Verdict is one sentence's fact-check outcome as returned by the checking
// service. Sentence holds the verbatim (trimmed) text the verdict answers
// for; matching against source text is case-insensitive.
type Verdict struct {
	Sentence    string   `json:"sentence"`              // The checked sentence
	Explanation string   `json:"explanation"`           // Why the rating was given
	Rating      Rating   `json:"rating"`                // Truthfulness rating
	Severity    Severity `json:"severity"`              // How much the inaccuracy matters
	KeyPoints   []string `json:"key_points,omitempty"`  // Supporting points
	Sources     []string `json:"source,omitempty"`      // Source URLs
	LocalID     int      `json:"id"`                    // Session-local id, assigned at cache insert
}

// Rating categorizes how true a sentence is
type Rating string

const (
	RatingTrue        Rating = "True"
	RatingMostlyTrue  Rating = "Mostly True"
	RatingHalfTrue    Rating = "Half True"
	RatingMostlyFalse Rating = "Mostly False"
	RatingFalse       Rating = "False"
)

// Severity indicates how consequential an inaccurate sentence is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)
