package handlers_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/catalog"
	"github.com/bsc-digital-identity/zk-compliance/internal/app/handlers"
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/credential"
	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/ledger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/payload"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rest"
	"github.com/bsc-digital-identity/zk-compliance/pkg/shamir"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
)

var t0 = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type acceptAll struct{}

func (acceptAll) Verify(context.Context, []byte, []byte, []field.Scalar) (bool, error) {
	return true, nil
}

type node struct {
	engine *gin.Engine
	cat    *catalog.Catalog
	bj     *babyjub.Context
	keys   []babyjub.PrivateKey
	secret field.Scalar
	pub    []string
}

func circuits(t *testing.T) *signals.Registry {
	t.Helper()
	reg, err := signals.NewRegistry(
		signals.Circuit{
			ID:            "age",
			OutputSignals: []signals.Signal{{Name: "encryptedShare", Dimensions: []int{3, 3}}},
			PublicSignals: []signals.Signal{signals.MustParse("minAge")},
		},
		signals.Circuit{
			ID:             "kyc",
			PrivateSignals: []signals.Signal{signals.MustParse("birthDate[3]")},
			PublicSignals:  []signals.Signal{signals.MustParse("minAge"), signals.MustParse("currentDate[3]")},
		},
	)
	require.NoError(t, err)
	return reg
}

func policies(t *testing.T) *policy.Registry {
	t.Helper()
	over18, err := policy.Parse([]byte(`{"id":"over-18","circuit":"age","rules":[{"key":"minAge","value":18}],"expirationPeriod":3600}`))
	require.NoError(t, err)
	adult, err := policy.Parse([]byte(`{"id":"adult","circuit":"kyc","rules":[{"key":"minAge","value":18}]}`))
	require.NoError(t, err)
	reg, err := policy.NewRegistry(over18, adult)
	require.NoError(t, err)
	return reg
}

func newNode(t *testing.T) *node {
	t.Helper()
	gin.SetMode(gin.TestMode)
	quiet := logger.New().WithOutput(&bytes.Buffer{})
	clock := func() time.Time { return t0 }

	n := &node{bj: babyjub.NewContext()}
	f := n.bj.Field()
	n.secret = f.FromInt64(424242)

	shares, err := shamir.Split(f, n.secret, 3, 2, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		k, err := n.bj.GenerateKey(nil)
		require.NoError(t, err)
		n.keys = append(n.keys, k)
		enc, err := n.bj.EncryptShare(n.bj.PublicKey(k), shares[i].Y, nil)
		require.NoError(t, err)
		for _, e := range enc.Elements() {
			n.pub = append(n.pub, e.String())
		}
	}
	n.pub = append(n.pub, "18")

	reg := circuits(t)
	pols := policies(t)
	l := ledger.NewMemory(clock)
	prs := proofrequest.NewService(l, acceptAll{}, reg, pols, f,
		proofrequest.WithClock(clock), proofrequest.WithLogger(quiet))
	inv := investigation.NewService(investigation.Deps{
		Ledger:        l,
		ProofRequests: l,
		Circuits:      reg,
		BabyJub:       n.bj,
	}, investigation.WithClock(clock), investigation.WithLogger(quiet))

	n.cat = &catalog.Catalog{Circuits: reg, Policies: pols}
	h := handlers.NewHandler(prs, inv, n.cat, n.bj, quiet)

	n.engine = gin.New()
	for _, r := range h.Routes() {
		n.engine.Handle(r.Method.String(), "/"+r.Group+"/"+r.Path, r.HandlerFunc)
	}
	return n
}

func (n *node) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	n.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// provedAndVerified walks PR1 through creation, proof and verification.
func (n *node) provedAndVerified(t *testing.T) {
	t.Helper()
	w := n.do(t, http.MethodPost, "/v1/proof-requests", dtocommon.CreateProofRequestDto{
		Address: "PR1", Owner: "holder", PolicyId: "over-18",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = n.do(t, http.MethodPost, "/v1/proof-requests/PR1/proof", dtocommon.SubmitProofDto{
		Proof: []byte("proof"), PublicSignals: n.pub,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = n.do(t, http.MethodPost, "/v1/proof-requests/PR1/verify", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[dtocommon.VerifyResponseDto](t, w)
	assert.Equal(t, "verified", res.Status)
	assert.Equal(t, "verified", res.Local)
	assert.False(t, res.Diverged)
}

func (n *node) openInvestigation(t *testing.T) investigation.Record {
	t.Helper()
	req := dtocommon.OpenInvestigationDto{Authority: "regulator", ProofRequest: "PR1", Owner: "holder", RequiredShareCount: 2}
	for i, k := range n.keys {
		req.Trustees = append(req.Trustees, dtocommon.TrusteeDto{Index: uint8(i + 1), PublicKey: dtocommon.NewPointDto(n.bj.PublicKey(k))})
	}
	w := n.do(t, http.MethodPost, "/v1/investigations", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[investigation.Record](t, w)
}

func TestProofRequestLifecycle(t *testing.T) {
	n := newNode(t)
	n.provedAndVerified(t)

	w := n.do(t, http.MethodGet, "/v1/proof-requests/PR1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pr := decode[proofrequest.ProofRequest](t, w)
	assert.Equal(t, proofrequest.Verified, pr.Status)
	assert.Len(t, pr.PublicSignals, len(n.pub))

	w = n.do(t, http.MethodPost, "/v1/proof-requests/PR1/proof", dtocommon.SubmitProofDto{
		Proof: []byte("again"), PublicSignals: n.pub,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, reasoncodes.InvalidStateTransition, decode[rest.ErrorResponse](t, w).ReasonCode)
}

func TestProofRequestQR(t *testing.T) {
	n := newNode(t)
	n.provedAndVerified(t)

	w := n.do(t, http.MethodGet, "/v1/proof-requests/PR1/qr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, "zkwallet://present?request_uri=http%3A%2F%2Fexample.com%2Fv1%2Fproof-requests%2FPR1",
		w.Header().Get("X-Wallet-Link"))

	w = n.do(t, http.MethodGet, "/v1/proof-requests/nope/qr", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProofRequestErrors(t *testing.T) {
	n := newNode(t)

	w := n.do(t, http.MethodGet, "/v1/proof-requests/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = n.do(t, http.MethodPost, "/v1/proof-requests", dtocommon.CreateProofRequestDto{Address: "PR2", PolicyId: "unknown"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = n.do(t, http.MethodPost, "/v1/proof-requests", dtocommon.CreateProofRequestDto{PolicyId: "over-18"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "address", decode[rest.ErrorResponse](t, w).Field)

	w = n.do(t, http.MethodPost, "/v1/proof-requests", `{"address":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, reasoncodes.ErrUnmarshal, decode[rest.ErrorResponse](t, w).ReasonCode)

	w = n.do(t, http.MethodPost, "/v1/proof-requests/PR1/proof", dtocommon.SubmitProofDto{
		Proof: []byte("p"), PublicSignals: []string{"not a number"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "public_signals[0]", decode[rest.ErrorResponse](t, w).Field)
}

func TestInvestigationRevealAndReconstruct(t *testing.T) {
	n := newNode(t)
	n.provedAndVerified(t)
	rec := n.openInvestigation(t)
	assert.Len(t, rec.SecretShares, 3)
	assert.Equal(t, investigation.Collecting, rec.Status)

	base := "/v1/investigations/" + rec.ID
	w := n.do(t, http.MethodPost, base+"/reconstruct", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, reasoncodes.InsufficientShares, decode[rest.ErrorResponse](t, w).ReasonCode)

	for _, i := range []int{2, 0} {
		w = n.do(t, http.MethodPost, base+"/shares", dtocommon.ShareRevealDto{
			ShareIndex: uint8(i + 1), TrusteeKey: n.bj.Scalar(n.keys[i]).String(),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decode[dtocommon.ShareRevealResultDto](t, w).Changed)
	}

	w = n.do(t, http.MethodPost, base+"/shares", dtocommon.ShareRevealDto{
		ShareIndex: 3, TrusteeKey: n.bj.Scalar(n.keys[2]).String(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[dtocommon.ShareRevealResultDto](t, w)
	assert.False(t, res.Changed)
	assert.Equal(t, investigation.Ready.String(), res.Status)

	w = n.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, investigation.Ready, decode[investigation.Record](t, w).Status)

	w = n.do(t, http.MethodPost, base+"/reconstruct", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[dtocommon.ReconstructResponseDto](t, w)
	assert.Equal(t, n.secret.String(), out.Secret)

	sealed, err := payload.Seal(n.bj.Field(), n.secret, []byte("holder identity"), []byte("PR1"))
	require.NoError(t, err)
	w = n.do(t, http.MethodPost, base+"/reconstruct", dtocommon.ReconstructRequestDto{SealedPayload: sealed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out = decode[dtocommon.ReconstructResponseDto](t, w)
	assert.Empty(t, out.Secret)
	assert.Equal(t, "holder identity", string(out.Payload))
}

func TestInvestigationErrors(t *testing.T) {
	n := newNode(t)

	w := n.do(t, http.MethodGet, "/v1/investigations/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = n.do(t, http.MethodPost, "/v1/investigations", dtocommon.OpenInvestigationDto{
		Authority: "regulator", ProofRequest: "PR9", RequiredShareCount: 1,
		Trustees: []dtocommon.TrusteeDto{{Index: 1, PublicKey: dtocommon.NewPointDto(n.bj.PublicKey(mustKey(t, n.bj)))}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	n.provedAndVerified(t)
	rec := n.openInvestigation(t)

	w = n.do(t, http.MethodPost, "/v1/investigations/"+rec.ID+"/shares", dtocommon.ShareRevealDto{ShareIndex: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, reasoncodes.MissingField, decode[rest.ErrorResponse](t, w).ReasonCode)

	w = n.do(t, http.MethodPost, "/v1/investigations/"+rec.ID+"/shares", dtocommon.ShareRevealDto{ShareIndex: 9, Share: "5"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, reasoncodes.UnknownTrustee, decode[rest.ErrorResponse](t, w).ReasonCode)
}

func mustKey(t *testing.T, bj *babyjub.Context) babyjub.PrivateKey {
	t.Helper()
	k, err := bj.GenerateKey(nil)
	require.NoError(t, err)
	return k
}

func TestBuildProofInput(t *testing.T) {
	n := newNode(t)
	cred, err := json.Marshal(credential.Credential{ID: "vc-1", Claims: map[string]any{"birthDate": "1990-01-15"}})
	require.NoError(t, err)

	w := n.do(t, http.MethodPost, "/v1/proof-inputs", dtocommon.ProofInputRequestDto{
		PolicyId:   "adult",
		Credential: cred,
		Timestamp:  t0.Unix(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"birthDate": ["1990", "1", "15"],
		"currentDate": ["2025", "6", "30"],
		"minAge": "18"
	}`, w.Body.String())

	w = n.do(t, http.MethodPost, "/v1/proof-inputs", dtocommon.ProofInputRequestDto{
		CircuitId: "age", PolicyId: "adult", Credential: cred,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "circuit_id", decode[rest.ErrorResponse](t, w).Field)

	w = n.do(t, http.MethodPost, "/v1/proof-inputs", dtocommon.ProofInputRequestDto{PolicyId: "missing", Credential: cred})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = n.do(t, http.MethodPost, "/v1/proof-inputs", dtocommon.ProofInputRequestDto{
		PolicyId: "adult", Credential: json.RawMessage(`{"id":"vc-2","credentialSubject":{}}`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, reasoncodes.MissingField, decode[rest.ErrorResponse](t, w).ReasonCode)
}

func TestBuildProofInputFromEnvelope(t *testing.T) {
	n := newNode(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	keys, ids, err := credential.PublicKeySet(pub)
	require.NoError(t, err)
	compact, err := credential.SealEnvelope(
		credential.Credential{ID: "vc-1", Claims: map[string]any{"birthDate": "1990-01-15"}},
		credential.EnvelopeKey{KeyID: ids[0], Private: priv},
	)
	require.NoError(t, err)
	quoted, err := json.Marshal(string(compact))
	require.NoError(t, err)

	req := dtocommon.ProofInputRequestDto{PolicyId: "adult", Credential: quoted, Timestamp: t0.Unix()}
	w := n.do(t, http.MethodPost, "/v1/proof-inputs", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no envelope keys configured")

	n.cat.EnvelopeKeys = keys
	w = n.do(t, http.MethodPost, "/v1/proof-inputs", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"birthDate":["1990","1","15"]`)

	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	n.cat.EnvelopeKeys, _, err = credential.PublicKeySet(otherPub)
	require.NoError(t, err)
	w = n.do(t, http.MethodPost, "/v1/proof-inputs", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, reasoncodes.InvalidSignature, decode[rest.ErrorResponse](t, w).ReasonCode)
}
