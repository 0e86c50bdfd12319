package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type ErrorResponse struct {
	Error      string                 `json:"error"`
	ReasonCode reasoncodes.ReasonCode `json:"reason_code,omitempty"`
	Field      string                 `json:"field,omitempty"`
}

var statusByCode = map[reasoncodes.ReasonCode]int{
	reasoncodes.ErrUnmarshal:            http.StatusBadRequest,
	reasoncodes.MissingField:            http.StatusBadRequest,
	reasoncodes.ShapeMismatch:           http.StatusBadRequest,
	reasoncodes.InvalidDateField:        http.StatusBadRequest,
	reasoncodes.UnknownSignal:           http.StatusBadRequest,
	reasoncodes.PolicyRuleFormatError:   http.StatusBadRequest,
	reasoncodes.EncodingOverflow:        http.StatusBadRequest,
	reasoncodes.DivisionByZero:          http.StatusBadRequest,
	reasoncodes.InvalidThreshold:        http.StatusBadRequest,
	reasoncodes.InvalidShareIndex:       http.StatusBadRequest,
	reasoncodes.DuplicateShareIndex:     http.StatusBadRequest,
	reasoncodes.UnknownTrustee:          http.StatusForbidden,
	reasoncodes.InvalidSignature:        http.StatusUnprocessableEntity,
	reasoncodes.ProofVerificationFailed: http.StatusUnprocessableEntity,
	reasoncodes.ArtifactDigestMismatch:  http.StatusBadGateway,
	reasoncodes.ErrSolana:               http.StatusBadGateway,
	reasoncodes.InsufficientShares:      http.StatusConflict,
	reasoncodes.ProofAlreadyExists:      http.StatusConflict,
	reasoncodes.InvalidStateTransition:  http.StatusConflict,
}

// StatusFor maps a reason coded error to an HTTP status; errors without a
// known code are internal errors.
func StatusFor(err error) int {
	if s, ok := statusByCode[reasoncodes.CodeOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AbortWithError writes err as JSON with the given status.
func AbortWithError(c *gin.Context, status int, err error) {
	resp := ErrorResponse{Error: err.Error(), ReasonCode: reasoncodes.CodeOf(err)}
	if field := reasoncodes.FieldOf(err); field != "" {
		resp.Field = field
	}
	c.AbortWithStatusJSON(status, resp)
}
