package investigation

import (
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

// SignalEncryptedShare is the circuit output carrying one encrypted share
// per trustee, each row (ephemeral x, ephemeral y, ciphertext).
const SignalEncryptedShare = "encryptedShare"

// EncryptedSharesFromSignals reads the encrypted shares out of a proof's
// public signal vector. Row i belongs to the i-th trustee the proof input
// was built with.
func EncryptedSharesFromSignals(circuit signals.Circuit, publicSignals []field.Scalar) ([]babyjub.EncryptedShare, error) {
	if want := circuit.PublicSize(); len(publicSignals) != want {
		return nil, reasoncodes.Newf(reasoncodes.ShapeMismatch, "publicSignals", "expected %d elements, got %d", want, len(publicSignals))
	}
	sig, off, err := circuit.PublicOffset(SignalEncryptedShare)
	if err != nil {
		return nil, err
	}
	if len(sig.Dimensions) != 2 || sig.Dimensions[1] != babyjub.EncryptedShareArity {
		return nil, reasoncodes.Newf(reasoncodes.ShapeMismatch, SignalEncryptedShare,
			"expected [n][%d], declared %v", babyjub.EncryptedShareArity, sig.Dimensions)
	}

	out := make([]babyjub.EncryptedShare, sig.Dimensions[0])
	for i := range out {
		row := publicSignals[off+i*babyjub.EncryptedShareArity:]
		out[i] = babyjub.EncryptedShare{
			Ephemeral:  babyjub.Point{X: row[0], Y: row[1]},
			Ciphertext: row[2],
		}
	}
	return out, nil
}
