package index

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// NewOllamaEmbedding returns an embedding func backed by a local Ollama
// instance. baseURL must include the /api suffix expected by chromem.
func NewOllamaEmbedding(model, baseURL string) chromem.EmbeddingFunc {
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL = strings.TrimRight(baseURL, "/") + "/api"
	}
	return chromem.NewEmbeddingFuncOllama(model, baseURL)
}

const localDim = 128

// NewLocalEmbedding returns a deterministic, offline embedding func:
// tokens are hashed into a fixed-size bag-of-words vector which is then
// L2-normalized. Identical text always maps to the identical vector, and
// token overlap yields proportionally high cosine similarity. It is the
// default when no embedding model is configured, and what tests use.
func NewLocalEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, localDim)
		for _, tok := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%localDim]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
		return vec, nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		}
		return true
	})
}
