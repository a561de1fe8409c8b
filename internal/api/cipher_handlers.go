package api

import (
	"encoding/json"
	"net/http"

	"github.com/secsys/security-service/internal/cipher"
)

// CipherHandler exposes the cipher tools endpoint.
type CipherHandler struct{}

// NewCipherHandler creates a new handler for the cipher endpoint.
func NewCipherHandler() *CipherHandler {
	return &CipherHandler{}
}

type cipherRequest struct {
	Text       string `json:"text"`
	CipherType string `json:"cipher_type"`
	Mode       string `json:"mode"`
	Shift      *int   `json:"shift,omitempty"`
	Key        string `json:"key,omitempty"`
}

// Process handles POST /ciphers/process.
func (h *CipherHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req cipherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CipherType == "" {
		req.CipherType = string(cipher.Caesar)
	}
	mode := cipher.Mode(req.Mode)
	if mode == "" {
		mode = cipher.Encrypt
	}
	if mode != cipher.Encrypt && mode != cipher.Decrypt {
		writeError(w, http.StatusBadRequest, "mode must be 'encrypt' or 'decrypt'")
		return
	}
	shift := 3
	if req.Shift != nil {
		shift = *req.Shift
	}
	key := req.Key
	if key == "" {
		key = "KEY"
	}

	result, err := cipher.Process(req.Text, cipher.Type(req.CipherType), mode, shift, key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":      result,
		"original":    req.Text,
		"cipher_type": req.CipherType,
		"mode":        string(mode),
	})
}
