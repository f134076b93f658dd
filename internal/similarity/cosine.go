// Package similarity scores candidate answers against queries. The Oracle
// interface is the seam between the scoring model and the model being
// trained on the output: the oracle judges, the trainee never appears here.
package similarity

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}
