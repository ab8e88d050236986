package matching

// Match score constants for segment matching.
// Higher scores indicate more specific matches; at any depth of the
// resource tree the highest-scoring child is tried first.
const (
	// ScoreSegmentLiteral is the score for an exact literal segment match.
	ScoreSegmentLiteral = 15

	// ScoreSegmentTemplate is the score for a mixed literal/parameter segment.
	// Between literal (15) and named params (12).
	ScoreSegmentTemplate = 14

	// ScoreSegmentParam is the score for a whole-segment named parameter.
	ScoreSegmentParam = 12
)

// ScoreMethod is credited to a near miss that declares the request method.
const ScoreMethod = 10
