package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"WordLeap/app/oracle"
	"WordLeap/app/sentence"
)

// fetcher is the slice of the oracle client the proxy needs; the credential
// stays on this side of the wire.
type fetcher interface {
	Fetch(ctx context.Context, prompt string) (oracle.WordPair, error)
}

type Server struct {
	oracle fetcher
	port   int
}

type pairRequest struct {
	Words    []string `json:"words"`
	Position string   `json:"position"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(o fetcher, port int) *Server {
	return &Server{oracle: o, port: port}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pair", s.handlePair)
	return mux
}

// Start serves the proxy in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🌐 Word pair proxy listening on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			log.Printf("❌ Proxy server error: %v", err)
		}
	}()
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("decode body: %w", err))
		return
	}

	prompt, err := promptForPosition(req)
	if err != nil {
		writeError(w, err)
		return
	}

	raw, err := s.oracle.Fetch(r.Context(), prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := sentence.RepairPair(raw, sentence.NewUsedWords(req.Words))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func promptForPosition(req pairRequest) (string, error) {
	switch req.Position {
	case "first":
		if len(req.Words) != 0 {
			return "", errors.New("first position requires empty words")
		}
		return oracle.OpeningPrompt(), nil
	case "middle":
		if len(req.Words) == 0 {
			return "", errors.New("middle position requires words")
		}
		return oracle.MiddlePrompt(req.Words), nil
	default:
		return "", fmt.Errorf("unknown position %q", req.Position)
	}
}

// Every failure collapses to 500 {error}; the caller only distinguishes
// "pair" from "no pair".
func writeError(w http.ResponseWriter, err error) {
	log.Printf("⚠️ Pair request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Error encoding response: %v", err)
	}
}
