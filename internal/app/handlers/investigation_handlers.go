package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/reveal"
	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
)

func (h *Handler) OpenInvestigation(c *gin.Context) {
	var req dtocommon.OpenInvestigationDto
	if !h.bind(c, &req) {
		return
	}
	params, err := req.ToParams(h.BabyJub)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.Investigations.Open(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetInvestigation(c *gin.Context) {
	rec, err := h.Investigations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// RevealShare accepts either the plaintext share or the trustee's key.
func (h *Handler) RevealShare(c *gin.Context) {
	var req dtocommon.ShareRevealDto
	if !h.bind(c, &req) {
		return
	}
	res, err := reveal.Apply(c.Request.Context(), h.Investigations, h.BabyJub, c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Reconstruct recovers the secret. With a sealed payload in the body the
// payload is opened instead and the secret is not returned.
func (h *Handler) Reconstruct(c *gin.Context) {
	var req dtocommon.ReconstructRequestDto
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}
	id := c.Param("id")
	res := dtocommon.ReconstructResponseDto{Investigation: id}

	if len(req.SealedPayload) > 0 {
		plain, err := h.Investigations.Disclose(c.Request.Context(), id, req.SealedPayload)
		if err != nil {
			h.fail(c, err)
			return
		}
		res.Payload = plain
	} else {
		secret, err := h.Investigations.Reconstruct(c.Request.Context(), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		res.Secret = secret.String()
	}
	c.JSON(http.StatusOK, res)
}
