package proofrequest

// Hint is the advisory result of verifying a proof locally.
type Hint struct {
	Outcome VerificationOutcome `json:"outcome"`
}

func (h Hint) Status() Status {
	if h.Outcome.Verified() {
		return Verified
	}
	return Rejected
}

type Reconciliation struct {
	Status   Status `json:"status"`
	Local    Status `json:"local"`
	Diverged bool   `json:"diverged"`
}

// Reconcile always adopts the ledger status. Divergence is flagged when the
// ledger has settled on a verdict different from the local hint, or has not
// settled at all.
func Reconcile(hint Hint, authoritative Status) Reconciliation {
	local := hint.Status()
	return Reconciliation{
		Status:   authoritative,
		Local:    local,
		Diverged: authoritative != local,
	}
}
