// Package handlers exposes the compliance node over REST.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/catalog"
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rest"
)

const apiGroup = "v1"

type Handler struct {
	ProofRequests  *proofrequest.Service
	Investigations *investigation.Service
	Catalog        *catalog.Catalog
	BabyJub        *babyjub.Context

	log *logger.Logger
	now func() time.Time
}

func NewHandler(pr *proofrequest.Service, inv *investigation.Service, cat *catalog.Catalog, bj *babyjub.Context, log *logger.Logger) *Handler {
	return &Handler{
		ProofRequests:  pr,
		Investigations: inv,
		Catalog:        cat,
		BabyJub:        bj,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Routes() []rest.Route {
	return []rest.Route{
		rest.NewRoute(rest.POST, apiGroup, "investigations", h.OpenInvestigation),
		rest.NewRoute(rest.GET, apiGroup, "investigations/:id", h.GetInvestigation),
		rest.NewRoute(rest.POST, apiGroup, "investigations/:id/shares", h.RevealShare),
		rest.NewRoute(rest.POST, apiGroup, "investigations/:id/reconstruct", h.Reconstruct),

		rest.NewRoute(rest.POST, apiGroup, "proof-requests", h.CreateProofRequest),
		rest.NewRoute(rest.GET, apiGroup, "proof-requests/:address", h.GetProofRequest),
		rest.NewRoute(rest.GET, apiGroup, "proof-requests/:address/qr", h.ProofRequestQR),
		rest.NewRoute(rest.POST, apiGroup, "proof-requests/:address/proof", h.SubmitProof),
		rest.NewRoute(rest.POST, apiGroup, "proof-requests/:address/verify", h.VerifyProofRequest),

		rest.NewRoute(rest.POST, apiGroup, "proof-inputs", h.BuildProofInput),
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, proofrequest.ErrNotFound),
		errors.Is(err, investigation.ErrNotFound),
		errors.Is(err, policy.ErrUnknownPolicy):
		return http.StatusNotFound
	case errors.Is(err, dtocommon.ErrNoEnvelopeKeys):
		return http.StatusUnprocessableEntity
	}
	return rest.StatusFor(err)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf(err, "%s %s failed", c.Request.Method, c.FullPath())
	}
	rest.AbortWithError(c, status, err)
}

// bind decodes the JSON body and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		rest.AbortWithError(c, http.StatusBadRequest, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "body", "%v", err))
		return false
	}
	return true
}
