package vectorstore

// RelevanceScoreFunc maps a squared euclidean distance to a relevance score,
// where higher means more relevant.
type RelevanceScoreFunc func(distance float64) float64

// DefaultRelevanceScore returns 1/(1+distance). It equals the raw
// VECTOR_SIMILARITY value CrateDB computes, so identical vectors score 1.
func DefaultRelevanceScore(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}
