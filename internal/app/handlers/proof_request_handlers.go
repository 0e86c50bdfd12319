package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
)

func (h *Handler) CreateProofRequest(c *gin.Context) {
	var req dtocommon.CreateProofRequestDto
	if !h.bind(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	pr, err := h.ProofRequests.Create(c.Request.Context(), req.Address, req.Owner, req.PolicyId)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pr)
}

// GetProofRequest returns the ledger copy with expiry applied.
func (h *Handler) GetProofRequest(c *gin.Context) {
	pr, err := h.ProofRequests.Get(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.fail(c, err)
		return
	}
	pr.Status = pr.EffectiveStatus(h.now())
	c.JSON(http.StatusOK, pr)
}

func (h *Handler) SubmitProof(c *gin.Context) {
	var req dtocommon.SubmitProofDto
	if !h.bind(c, &req) {
		return
	}
	pub, err := req.ParseSignals(h.BabyJub.Field())
	if err != nil {
		h.fail(c, err)
		return
	}
	address := c.Param("address")
	if err := h.ProofRequests.SubmitProof(c.Request.Context(), address, req.Proof, pub, req.Force); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"address": address, "status": "proved"})
}

// VerifyProofRequest verifies locally, submits the verdict and reports the
// ledger's decision next to the local one.
func (h *Handler) VerifyProofRequest(c *gin.Context) {
	address := c.Param("address")
	rec, err := h.ProofRequests.Finalize(c.Request.Context(), address)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtocommon.VerifyResponseDto{
		Address:  address,
		Status:   rec.Status.String(),
		Local:    rec.Local.String(),
		Diverged: rec.Diverged,
	})
}

// walletLink is the deep link a holder wallet follows to fetch the request.
func walletLink(c *gin.Context, address string) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	requestURI := fmt.Sprintf("%s://%s/%s/proof-requests/%s", scheme, c.Request.Host, apiGroup, url.PathEscape(address))
	return "zkwallet://present?request_uri=" + url.QueryEscape(requestURI)
}

// ProofRequestQR renders the wallet link of a proof request as a PNG.
func (h *Handler) ProofRequestQR(c *gin.Context) {
	pr, err := h.ProofRequests.Get(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.fail(c, err)
		return
	}
	link := walletLink(c, pr.Address)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-Wallet-Link", link)
	c.Data(http.StatusOK, "image/png", png)
}
