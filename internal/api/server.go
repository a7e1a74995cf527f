package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"net/http"
	"strconv"
)

const (
	AccountHeader    = "X-Account"
	AdminTokenHeader = "X-Admin-Token"
)

var (
	ErrMissingAccount = errors.New("missing account header")
	ErrInvalidTokenId = errors.New("invalid token id")
	ErrInvalidBody    = errors.New("invalid request body")
	ErrUnauthorized   = errors.New("invalid admin token")
)

type Server struct {
	engine     marketplace.Engine
	adminToken string
}

func NewServer(engine marketplace.Engine, adminToken string) Server {
	return Server{engine, adminToken}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")
	r.Handle("/metrics", metrics.Handler()).Methods("GET").Name("metrics")

	r.HandleFunc("/listings", s.handleGetListings).Methods("GET").Name("listings")
	r.HandleFunc("/listings", s.handleCreateSell).Methods("POST").Name("createSell")
	r.HandleFunc("/listings/bulk-buy", s.handleBulkBuy).Methods("POST").Name("bulkBuy")
	r.HandleFunc("/listings/{collection}/{tokenId}", s.handleGetListing).Methods("GET").Name("listing")
	r.HandleFunc("/listings/{collection}/{tokenId}", s.handleCancel).Methods("DELETE").Name("cancel")
	r.HandleFunc("/listings/{collection}/{tokenId}/buy", s.handleBuy).Methods("POST").Name("buy")

	r.HandleFunc("/offers", s.handleMakeOffer).Methods("POST").Name("makeOffer")
	r.HandleFunc("/offers/{collection}/{tokenId}", s.handleGetOffers).Methods("GET").Name("offers")
	r.HandleFunc("/offers/{collection}/{tokenId}", s.handleWithdrawOffer).Methods("DELETE").Name("withdrawOffer")
	r.HandleFunc("/offers/{collection}/{tokenId}/accept", s.handleAcceptOffer).Methods("POST").Name("acceptOffer")

	r.HandleFunc("/auctions", s.handleCreateAuction).Methods("POST").Name("createAuction")
	r.HandleFunc("/auctions/{collection}/{tokenId}", s.handleGetAuction).Methods("GET").Name("auction")
	r.HandleFunc("/auctions/{collection}/{tokenId}", s.handleCancelAuction).Methods("DELETE").Name("cancelAuction")
	r.HandleFunc("/auctions/{collection}/{tokenId}/bids", s.handlePlaceBid).Methods("POST").Name("placeBid")
	r.HandleFunc("/auctions/{collection}/{tokenId}/complete", s.handleCompleteBid).Methods("POST").Name("completeBid")

	r.HandleFunc("/fee", s.handleGetFee).Methods("GET").Name("fee")
	r.HandleFunc("/admin/fee", s.handleSetFee).Methods("PUT").Name("setFee")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"address": s.engine.Address(),
	})
}

func (s Server) handleGetFee(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.PlatformFee())
}

func (s Server) handleSetFee(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" || r.Header.Get(AdminTokenHeader) != s.adminToken {
		writeError(w, r, ErrUnauthorized)
		return
	}

	var req setFeeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.engine.SetPlatformFee(req.Bps, req.Recipient); err != nil {
		writeError(w, r, err)
		return
	}

	zap.L().With(zap.Uint("bps", req.Bps), zap.String("recipient", req.Recipient)).Info("Api: Platform fee set")
	writeJSON(w, http.StatusOK, s.engine.PlatformFee())
}

func getAccount(r *http.Request) (string, error) {
	account := r.Header.Get(AccountHeader)
	if account == "" {
		return "", ErrMissingAccount
	}

	return account, nil
}

func getAsset(r *http.Request) (string, uint64, error) {
	vars := mux.Vars(r)
	collection, ok := vars["collection"]
	if !ok {
		return "", 0, marketplace.ErrInvalidAddress
	}

	tokenId, err := strconv.ParseUint(vars["tokenId"], 10, 64)
	if err != nil {
		return "", 0, ErrInvalidTokenId
	}

	return collection, tokenId, nil
}

func decode(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBody, err.Error())
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Warn("Api: Failed to write response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "page not found", Class: "not_found"})
	})
}
