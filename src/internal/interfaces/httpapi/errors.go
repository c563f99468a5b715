package httpapi

import (
	"net/http"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/zap"
)

var conflictCodes = map[shared.ErrorCode]bool{
	affiliate.ErrCodeInsufficientBalance:    true,
	affiliate.ErrCodeCodeTaken:              true,
	affiliate.ErrCodeAccountAlreadyExists:   true,
	affiliate.ErrCodeConcurrentModification: true,
	affiliate.ErrCodeDuplicateEvent:         true,
	partner.ErrCodeCommissionNotEligible:    true,
	partner.ErrCodeAlreadyPaid:              true,
	partner.ErrCodeConcurrentModification:   true,
	partner.ErrCodeDuplicateEvent:           true,
	partner.ErrCodePartnerNumberTaken:       true,
	partner.ErrCodePayoutNumberTaken:        true,
}

var unprocessableCodes = map[shared.ErrorCode]bool{
	partner.ErrCodeNoPayoutAccount: true,
	partner.ErrCodeEmptyPayout:     true,
}

var internalCodes = map[shared.ErrorCode]bool{
	affiliate.ErrCodeInvariantViolation: true,
	affiliate.ErrCodeInvalidTierPolicy:  true,
	partner.ErrCodeInvariantViolation:   true,
}

// mapError translates an error into status, code and client message.
// Anything that is not a domain error is reported as an opaque 500.
func mapError(err error) (int, string, string) {
	code, ok := shared.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
	switch {
	case strings.HasSuffix(string(code), "NOT_FOUND"):
		return http.StatusNotFound, string(code), err.Error()
	case conflictCodes[code]:
		return http.StatusConflict, string(code), err.Error()
	case unprocessableCodes[code]:
		return http.StatusUnprocessableEntity, string(code), err.Error()
	case internalCodes[code]:
		return http.StatusInternalServerError, string(code), "internal error"
	default:
		return http.StatusBadRequest, string(code), err.Error()
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	writeError(w, r, status, code, message)
}
