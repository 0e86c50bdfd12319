package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofinput"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

// BuildProofInput assembles the prover input for a credential under a
// policy. The circuit defaults to the one the policy targets.
func (h *Handler) BuildProofInput(c *gin.Context) {
	var req dtocommon.ProofInputRequestDto
	if !h.bind(c, &req) {
		return
	}
	if req.PolicyId == "" {
		h.fail(c, reasoncodes.New(reasoncodes.MissingField, "policy_id"))
		return
	}
	pol, err := h.Catalog.Policies.Policy(c.Request.Context(), req.PolicyId)
	if err != nil {
		h.fail(c, err)
		return
	}
	circuitID := req.CircuitId
	if circuitID == "" {
		circuitID = pol.CircuitRef
	}
	if circuitID != pol.CircuitRef {
		h.fail(c, reasoncodes.Newf(reasoncodes.ShapeMismatch, "circuit_id", "policy %s targets circuit %s", pol.ID, pol.CircuitRef))
		return
	}
	circuit, err := h.Catalog.Circuits.Circuit(circuitID)
	if err != nil {
		h.fail(c, err)
		return
	}

	cred, err := req.ParseCredential(h.Catalog.EnvelopeKeys)
	if err != nil {
		h.fail(c, err)
		return
	}
	trustees, err := req.ParseTrustees(h.BabyJub)
	if err != nil {
		h.fail(c, err)
		return
	}
	userKey, err := req.ParseUserKey(h.BabyJub)
	if err != nil {
		h.fail(c, err)
		return
	}

	b := proofinput.New(h.BabyJub).
		WithCircuit(circuit).
		WithPolicy(pol).
		WithCredential(cred).
		WithTrusteePublicKey(trustees)
	if userKey != nil {
		b = b.WithUserPrivateKey(*userKey)
	}
	if req.Timestamp > 0 {
		b = b.WithTimestamp(timeutil.TimeUTC{T: req.Timestamp})
	}

	in, err := b.Build()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}
