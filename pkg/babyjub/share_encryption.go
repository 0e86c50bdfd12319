package babyjub

import (
	"io"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
)

// EncryptedShareArity is the width of one encryptedShare output row:
// ephemeral x, ephemeral y, ciphertext.
const EncryptedShareArity = 3

// EncryptedShare is a secret share encrypted to one trustee key.
type EncryptedShare struct {
	Ephemeral  Point        `json:"ephemeral"`
	Ciphertext field.Scalar `json:"ciphertext"`
}

func (e EncryptedShare) Elements() []field.Scalar {
	return []field.Scalar{e.Ephemeral.X, e.Ephemeral.Y, e.Ciphertext}
}

// EncryptShare computes ciphertext = share + MiMC(r·pub), ephemeral = r·G.
func (c *Context) EncryptShare(pub Point, share field.Scalar, rnd io.Reader) (EncryptedShare, error) {
	r, err := c.randomScalar(rnd)
	if err != nil {
		return EncryptedShare{}, err
	}
	shared := c.ScalarMul(pub, r)
	key := c.Hash(shared.X, shared.Y)
	return EncryptedShare{
		Ephemeral:  c.ScalarMul(c.Base(), r),
		Ciphertext: c.field.Add(share, key),
	}, nil
}

func (c *Context) DecryptShare(priv PrivateKey, enc EncryptedShare) field.Scalar {
	shared := c.ScalarMul(enc.Ephemeral, priv.k)
	key := c.Hash(shared.X, shared.Y)
	return c.field.Sub(enc.Ciphertext, key)
}
