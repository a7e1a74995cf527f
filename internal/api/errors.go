package api

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"net/http"
)

const (
	PreconditionClass = "precondition"
	ValueClass        = "value"
	InvariantClass    = "invariant"
	InternalClass     = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class"`
}

var (
	notFoundErrors = []error{
		marketplace.ErrNoActiveListing,
		marketplace.ErrNoSuchOffer,
		marketplace.ErrNoSuchAuction,
		custody.ErrTokenNotFound,
	}
	forbiddenErrors = []error{
		marketplace.ErrNotOwner,
		marketplace.ErrNotSeller,
		marketplace.ErrSelfPurchase,
		marketplace.ErrSellerBid,
		marketplace.ErrEscrowParty,
	}
	badRequestErrors = []error{
		ErrInvalidBody,
		ErrInvalidTokenId,
	}
)

// Classify maps an error to its class and HTTP status.
func Classify(err error) (string, int) {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMissingAccount):
		return PreconditionClass, http.StatusForbidden
	case isAny(err, badRequestErrors):
		return ValueClass, http.StatusBadRequest
	case marketplace.IsInvariant(err):
		return InvariantClass, http.StatusInternalServerError
	case marketplace.IsValue(err):
		return ValueClass, http.StatusBadRequest
	case marketplace.IsPrecondition(err):
		if isAny(err, notFoundErrors) {
			return PreconditionClass, http.StatusNotFound
		}
		if isAny(err, forbiddenErrors) {
			return PreconditionClass, http.StatusForbidden
		}
		return PreconditionClass, http.StatusConflict
	default:
		return InternalClass, http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	class, status := Classify(err)

	operation := "unknown"
	if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
		operation = route.GetName()
	}
	metrics.RecordFailure(operation, class)

	logger := zap.L().With(zap.String("operation", operation), zap.String("class", class), zap.Error(err))
	if status == http.StatusInternalServerError {
		logger.Error("Api: Operation failed")
	} else {
		logger.Info("Api: Operation rejected")
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Class: class})
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
