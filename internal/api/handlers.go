package api

import (
	"net/http"
)

func (s Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.engine.Listings()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := s.engine.Listing(collection, tokenId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

func (s Server) handleCreateSell(w http.ResponseWriter, r *http.Request) {
	seller, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createSellRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := s.engine.CreateSell(req.Collection, req.TokenId, req.Price, seller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

func (s Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.engine.Cancel(collection, tokenId, caller); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	buyer, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req buyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	settlement, err := s.engine.Buy(collection, tokenId, buyer, req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settlement)
}

func (s Server) handleBulkBuy(w http.ResponseWriter, r *http.Request) {
	buyer, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req bulkBuyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.engine.BulkBuy(req.Items, buyer, req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleMakeOffer(w http.ResponseWriter, r *http.Request) {
	offerer, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req makeOfferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	offer, err := s.engine.MakeOffer(req.Collection, req.TokenId, offerer, req.Amount, req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

func (s Server) handleGetOffers(w http.ResponseWriter, r *http.Request) {
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	offers, err := s.engine.Offers(collection, tokenId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

func (s Server) handleWithdrawOffer(w http.ResponseWriter, r *http.Request) {
	offerer, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	offer, err := s.engine.WithdrawOffer(collection, tokenId, offerer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

func (s Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	caller, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req acceptOfferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	settlement, err := s.engine.AcceptOffer(collection, tokenId, req.Offerer, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settlement)
}

func (s Server) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	seller, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createAuctionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	auction, err := s.engine.CreateAuction(
		req.Collection,
		req.TokenId,
		seller,
		req.StartingPrice,
		req.MinIncrement,
		req.StartTime,
		req.EndTime,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, auction)
}

func (s Server) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auction, err := s.engine.Auction(collection, tokenId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, auction)
}

func (s Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	bidder, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req placeBidRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	auction, err := s.engine.PlaceBid(collection, tokenId, bidder, req.Bid, req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, auction)
}

// handleCompleteBid may be called by anyone once the auction has ended.
func (s Server) handleCompleteBid(w http.ResponseWriter, r *http.Request) {
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	settlement, err := s.engine.CompleteBid(collection, tokenId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settlement)
}

func (s Server) handleCancelAuction(w http.ResponseWriter, r *http.Request) {
	caller, err := getAccount(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, tokenId, err := getAsset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.engine.CancelAuction(collection, tokenId, caller); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
