package services

// NoRecommendations is shown when the backend sent none.
const NoRecommendations = "No specific recommendations available"

// RenderRecommendations keeps backend recommendations verbatim and in order.
func RenderRecommendations(recs []string) []string {
	if len(recs) == 0 {
		return []string{NoRecommendations}
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}
