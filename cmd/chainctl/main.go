package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	logs "github.com/danmuck/smplog"
	"github.com/pterm/pterm"

	"github.com/danmuck/dps_ledger/cmd/internal/logcfg"
	"github.com/danmuck/dps_ledger/src/api"
	"github.com/danmuck/dps_ledger/src/ledger"
	"github.com/danmuck/dps_ledger/src/ownership"
)

// chainctl runs the full ownership-proof flow against an in-process
// chain and renders the result: generate a wallet, sign challenges,
// submit a few records, audit the chain, and query by owner.
func main() {
	logcfg.Configure()

	chain := ledger.InitDefaultChain()
	pterm.DefaultSection.Println("dps_ledger demo chain")
	pterm.Info.Printfln("origin block sealed: %x", chain.Tip().Digest()[:8])

	wallet := ownership.GenerateKeyPair()
	address, err := wallet.Address()
	if err != nil {
		logs.Errorf(err, "failed to derive wallet address")
		os.Exit(1)
	}
	pterm.Info.Printfln("wallet address: %s", address)

	records := []api.Record{
		{"star": "Polaris", "magnitude": 1.98},
		{"star": "Vega", "magnitude": 0.03},
		{"star": "Sirius", "magnitude": -1.46},
	}
	for _, rec := range records {
		if err := submit(chain, wallet, address, rec); err != nil {
			logs.Errorf(err, "submission rejected")
			os.Exit(1)
		}
	}

	renderChain(chain)
	renderAudit(chain)
	renderOwnerQuery(chain, address)
}

// submit walks the claimant side of the protocol: obtain a challenge,
// sign it, and hand challenge + signature + payload to the chain.
func submit(chain *ledger.Chain, wallet ownership.KeyPair, address string, rec api.Record) error {
	challenge := chain.IssueChallenge(address)
	signature, err := wallet.Sign([]byte(challenge))
	if err != nil {
		return err
	}

	b, err := chain.SubmitWithProof(address, challenge, signature, rec)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("block %d sealed: %x", b.Height(), b.Digest()[:8])
	return nil
}

func renderChain(chain *ledger.Chain) {
	pterm.DefaultSection.Println("chain contents")

	data := pterm.TableData{{"height", "timestamp", "prev digest", "digest", "owner"}}
	for _, b := range chain.Blocks() {
		owner := "-"
		if b.Height() > 0 {
			if rec, err := b.DecodedPayload(chain.Coder()); err == nil {
				if tag, ok := rec[api.OwnerField].(string); ok {
					owner = tag[:12] + "…"
				}
			}
		}
		data = append(data, []string{
			strconv.FormatUint(b.Height(), 10),
			strconv.FormatInt(b.Timestamp(), 10),
			shortDigest(b.PrevDigest()),
			shortDigest(b.Digest()),
			owner,
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		logs.Warnf("table render failed: %v", err)
	}
}

func renderAudit(chain *ledger.Chain) {
	pterm.DefaultSection.Println("chain audit")

	findings := chain.Validate()
	if len(findings) == 0 {
		pterm.Success.Printfln("chain intact: %d blocks, no violations", chain.CurrentHeight()+1)
		return
	}
	for _, f := range findings {
		pterm.Error.Printfln("%v", f)
	}
}

func renderOwnerQuery(chain *ledger.Chain, address string) {
	pterm.DefaultSection.Println("records owned by " + address[:12] + "…")

	records, failures := chain.CollectByOwner(address)
	for _, r := range records {
		pterm.Info.Printfln("block %d: %s", r.Height, fmt.Sprintf("%v", r.Data["star"]))
	}
	for _, f := range failures {
		pterm.Warning.Printfln("%v", f)
	}
}

func shortDigest(d []byte) string {
	if len(d) == 0 {
		return "-"
	}
	return hex.EncodeToString(d[:8])
}
