package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/dps_ledger/src/api"
	"github.com/danmuck/dps_ledger/src/ledger"
	"github.com/danmuck/dps_ledger/src/ownership"
)

func newTestServer(t *testing.T) (*ledger.Chain, http.Handler) {
	t.Helper()

	chain := ledger.InitChain(ledger.ChainConfig{
		Clock:           func() int64 { return 1_700_000_000 },
		ChallengeWindow: 300,
	})
	return chain, newRouter(chain)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// submitBlock drives the whole HTTP protocol: request a challenge,
// sign it, and post the signed submission.
func submitBlock(t *testing.T, h http.Handler, wallet ownership.KeyPair, address string, data api.Record) blockResponse {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/challenge", map[string]string{"address": address})
	if rec.Code != http.StatusOK {
		t.Fatalf("challenge request failed: %d %s", rec.Code, rec.Body.String())
	}
	var challengeResp struct {
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &challengeResp); err != nil {
		t.Fatalf("failed to decode challenge response: %v", err)
	}

	signature, err := wallet.Sign([]byte(challengeResp.Challenge))
	if err != nil {
		t.Fatalf("failed to sign challenge: %v", err)
	}

	rec = doJSON(t, h, http.MethodPost, "/blocks", map[string]any{
		"address":   address,
		"challenge": challengeResp.Challenge,
		"signature": hex.EncodeToString(signature),
		"data":      data,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submission failed: %d %s", rec.Code, rec.Body.String())
	}

	var block blockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &block); err != nil {
		t.Fatalf("failed to decode block response: %v", err)
	}
	return block
}

func newTestWallet(t *testing.T) (ownership.KeyPair, string) {
	t.Helper()

	wallet := ownership.GenerateKeyPair()
	address, err := wallet.Address()
	if err != nil {
		t.Fatalf("failed to derive address: %v", err)
	}
	return wallet, address
}

func TestSubmitAndLookup(t *testing.T) {
	chain, h := newTestServer(t)
	wallet, address := newTestWallet(t)

	block := submitBlock(t, h, wallet, address, api.Record{"star": "Polaris"})
	if block.Height != 1 {
		t.Fatalf("expected height 1, got %d", block.Height)
	}
	if block.Data["star"] != "Polaris" || block.Data["owner"] != address {
		t.Fatalf("unexpected block data: %#v", block.Data)
	}

	genesis, _ := chain.GetByHeight(0)
	if block.PrevDigest != hex.EncodeToString(genesis.Digest()) {
		t.Fatal("block does not link to the origin block")
	}

	rec := doJSON(t, h, http.MethodGet, "/blocks/height/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup by height failed: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/blocks/digest/"+block.Digest, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup by digest failed: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/blocks/height/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing block should 404, got %d", rec.Code)
	}
}

func TestSubmitRejectsBadProof(t *testing.T) {
	chain, h := newTestServer(t)
	_, address := newTestWallet(t)
	intruder, _ := newTestWallet(t)

	rec := doJSON(t, h, http.MethodPost, "/challenge", map[string]string{"address": address})
	var challengeResp struct {
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &challengeResp); err != nil {
		t.Fatalf("failed to decode challenge response: %v", err)
	}

	signature, err := intruder.Sign([]byte(challengeResp.Challenge))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	rec = doJSON(t, h, http.MethodPost, "/blocks", map[string]any{
		"address":   address,
		"challenge": challengeResp.Challenge,
		"signature": hex.EncodeToString(signature),
		"data":      api.Record{"star": "Polaris"},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bad proof should 403, got %d %s", rec.Code, rec.Body.String())
	}
	if height := chain.CurrentHeight(); height != 0 {
		t.Fatalf("rejected submission must not append, height %d", height)
	}
}

func TestAuditEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	wallet, address := newTestWallet(t)

	submitBlock(t, h, wallet, address, api.Record{"star": "Vega"})

	rec := doJSON(t, h, http.MethodGet, "/audit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit failed: %d", rec.Code)
	}

	var audit struct {
		Intact     bool  `json:"intact"`
		Violations []any `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &audit); err != nil {
		t.Fatalf("failed to decode audit response: %v", err)
	}
	if !audit.Intact || len(audit.Violations) != 0 {
		t.Fatalf("expected intact chain, got %+v", audit)
	}
}

func TestOwnerRecordsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	walletA, addressA := newTestWallet(t)
	walletB, addressB := newTestWallet(t)

	submitBlock(t, h, walletA, addressA, api.Record{"star": "Polaris"})
	submitBlock(t, h, walletB, addressB, api.Record{"star": "Vega"})
	submitBlock(t, h, walletA, addressA, api.Record{"star": "Sirius"})

	rec := doJSON(t, h, http.MethodGet, "/owners/"+addressA+"/records", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner query failed: %d", rec.Code)
	}

	var resp struct {
		Records []struct {
			Height uint64     `json:"height"`
			Data   api.Record `json:"data"`
		} `json:"records"`
		Failures []any `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode owner query response: %v", err)
	}
	if len(resp.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", resp.Failures)
	}
	if len(resp.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Records))
	}
	if resp.Records[0].Height != 1 || resp.Records[1].Height != 3 {
		t.Fatalf("records out of chain order: %+v", resp.Records)
	}
}
