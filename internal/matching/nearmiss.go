package matching

import (
	"fmt"
	"sort"
	"strings"
)

// MinNearMissPercentage is the lowest match percentage reported as a near
// miss.
const MinNearMissPercentage = 50

// Candidate is a declared route considered for a near miss.
type Candidate struct {
	Method  string
	Pattern string
}

// NearMiss is a declared route that partially matches a request.
type NearMiss struct {
	Method           string `json:"method"`
	Pattern          string `json:"pattern"`
	Score            int    `json:"score"`
	MaxPossibleScore int    `json:"maxPossibleScore"`
	MatchPercentage  int    `json:"matchPercentage"`
	Reason           string `json:"reason"`
}

// FindNearMisses scores every candidate against a request and returns up to
// limit of them, best first. Candidates below MinNearMissPercentage and
// exact matches are left out. limit <= 0 returns all.
func FindNearMisses(method string, segments []string, candidates []Candidate, limit int) []NearMiss {
	var out []NearMiss
	for _, c := range candidates {
		nm, ok := breakdown(method, segments, c)
		if !ok || nm.Reason == "" || nm.MatchPercentage < MinNearMissPercentage {
			continue
		}
		out = append(out, nm)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchPercentage != out[j].MatchPercentage {
			return out[i].MatchPercentage > out[j].MatchPercentage
		}
		return out[i].Pattern < out[j].Pattern
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// breakdown compares the request with one candidate without
// short-circuiting. Every path position is worth up to ScoreSegmentLiteral
// and scores what the declared segment scores when matching; the method is
// worth ScoreMethod. An exact match has no Reason.
func breakdown(method string, segments []string, c Candidate) (NearMiss, bool) {
	nm := NearMiss{Method: c.Method, Pattern: c.Pattern, MaxPossibleScore: ScoreMethod}
	var reasons []string

	if strings.EqualFold(method, c.Method) {
		nm.Score += ScoreMethod
	} else {
		reasons = append(reasons, fmt.Sprintf("method is %s, not %s", c.Method, strings.ToUpper(method)))
	}

	declared := SplitPath(c.Pattern)
	mismatched := false
	for i := range max(len(declared), len(segments)) {
		nm.MaxPossibleScore += ScoreSegmentLiteral
		if i >= len(declared) || i >= len(segments) {
			continue
		}
		seg, err := CompileSegment(declared[i])
		if err != nil {
			return NearMiss{}, false
		}
		if score := seg.Match(segments[i], nil); score > 0 {
			nm.Score += score
			continue
		}
		if !mismatched {
			mismatched = true
			reasons = append(reasons, fmt.Sprintf("segment %d is %q, expected %q", i+1, segments[i], declared[i]))
		}
	}

	switch diff := len(segments) - len(declared); {
	case diff > 0:
		reasons = append(reasons, fmt.Sprintf("path has %d extra segment(s)", diff))
	case diff < 0:
		reasons = append(reasons, fmt.Sprintf("path is missing %d segment(s)", -diff))
	}

	nm.MatchPercentage = nm.Score * 100 / nm.MaxPossibleScore
	nm.Reason = strings.Join(reasons, "; ")
	return nm, true
}
