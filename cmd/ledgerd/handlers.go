package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	logs "github.com/danmuck/smplog"
	"github.com/gorilla/mux"

	"github.com/danmuck/dps_ledger/src/api"
	"github.com/danmuck/dps_ledger/src/ledger"
)

type blockResponse struct {
	Height     uint64     `json:"height"`
	Timestamp  int64      `json:"timestamp"`
	PrevDigest string     `json:"prev_digest,omitempty"`
	Digest     string     `json:"digest"`
	Data       api.Record `json:"data,omitempty"`
}

// toBlockResponse flattens a sealed block for transport. The origin
// block has no application data, so its Data field stays empty.
func toBlockResponse(chain *ledger.Chain, b *ledger.Block) blockResponse {
	resp := blockResponse{
		Height:     b.Height(),
		Timestamp:  b.Timestamp(),
		PrevDigest: hex.EncodeToString(b.PrevDigest()),
		Digest:     hex.EncodeToString(b.Digest()),
	}
	if b.Height() > 0 {
		if rec, err := b.DecodedPayload(chain.Coder()); err == nil {
			resp.Data = rec
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func handleChallenge(chain *ledger.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
			http.Error(w, "address required", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"challenge": chain.IssueChallenge(req.Address),
		})
	}
}

func handleSubmit(chain *ledger.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address   string     `json:"address"`
			Challenge string     `json:"challenge"`
			Signature string     `json:"signature"`
			Data      api.Record `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		signature, err := hex.DecodeString(req.Signature)
		if err != nil {
			http.Error(w, "signature must be hex encoded", http.StatusBadRequest)
			return
		}

		b, err := chain.SubmitWithProof(req.Address, req.Challenge, signature, req.Data)
		switch {
		case errors.Is(err, ledger.ErrOwnershipRejected):
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		case errors.Is(err, ledger.ErrChainIntegrity):
			// A rejected append means the ledger itself is inconsistent,
			// which is a defect rather than bad input.
			logs.Errorf(err, "append rejected by chain audit")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toBlockResponse(chain, b))
	}
}

func handleGetByHeight(chain *ledger.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
		if err != nil {
			http.Error(w, "invalid height", http.StatusBadRequest)
			return
		}

		b, ok := chain.GetByHeight(height)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toBlockResponse(chain, b))
	}
}

func handleGetByDigest(chain *ledger.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		digest, err := hex.DecodeString(mux.Vars(r)["digest"])
		if err != nil {
			http.Error(w, "digest must be hex encoded", http.StatusBadRequest)
			return
		}

		b, ok := chain.GetByDigest(digest)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toBlockResponse(chain, b))
	}
}

func handleAudit(chain *ledger.Chain) http.HandlerFunc {
	type violation struct {
		Height uint64 `json:"height"`
		Kind   string `json:"kind"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		findings := chain.Validate()

		violations := make([]violation, 0, len(findings))
		for _, f := range findings {
			logs.Errorf(f, "chain audit violation")
			violations = append(violations, violation{Height: f.Height, Kind: string(f.Kind)})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"intact":     len(findings) == 0,
			"violations": violations,
		})
	}
}

func handleOwnerRecords(chain *ledger.Chain) http.HandlerFunc {
	type failure struct {
		Height uint64 `json:"height"`
		Error  string `json:"error"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		address := mux.Vars(r)["address"]

		records, payloadErrs := chain.CollectByOwner(address)
		failures := make([]failure, 0, len(payloadErrs))
		for _, pe := range payloadErrs {
			logs.Warnf("owner query partial failure: %v", pe)
			failures = append(failures, failure{Height: pe.Height, Error: pe.Err.Error()})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"records":  records,
			"failures": failures,
		})
	}
}
