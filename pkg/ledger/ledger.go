// Package ledger holds the authoritative proof request and investigation
// accounts. Memory is an in-process ledger for tests and local runs; Solana
// talks to the deployed program.
package ledger

import (
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
)

type Ledger interface {
	proofrequest.Ledger
	investigation.Ledger
}

var (
	_ Ledger = (*Memory)(nil)
	_ Ledger = (*Solana)(nil)
)
