package api

import (
	"context"
	"log"
	"net/http"

	"github.com/secsys/security-service/internal/cipher"
	"github.com/secsys/security-service/internal/domain"
)

// JokeFetcher defines the interface for fetching a random joke.
type JokeFetcher interface {
	FetchRandom(ctx context.Context) (*domain.Joke, error)
}

// JokeHandler exposes the joke dashboard endpoint.
type JokeHandler struct {
	fetcher JokeFetcher
}

// NewJokeHandler creates a new handler for the joke endpoints.
func NewJokeHandler(fetcher JokeFetcher) *JokeHandler {
	return &JokeHandler{fetcher: fetcher}
}

// Random handles GET /jokes/random: one joke plus its encrypted variants.
func (h *JokeHandler) Random(w http.ResponseWriter, r *http.Request) {
	joke, err := h.fetcher.FetchRandom(r.Context())
	if err != nil {
		log.Printf("Error fetching joke: %v", err)
		writeError(w, http.StatusBadGateway, "Could not fetch a joke")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"joke":     joke.Text,
		"category": joke.Category,
		"encrypted": map[string]string{
			"atbash":   cipher.AtbashCipher(joke.Text),
			"caesar":   cipher.CaesarCipher(joke.Text, 3, cipher.Encrypt),
			"vigenere": cipher.VigenereCipher(joke.Text, "JOKE", cipher.Encrypt),
		},
	})
}
