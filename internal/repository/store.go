package repository

import (
	"encoding/json"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrAuctionNotFound = errors.New("auction not found")

	errRecordNotFound = errors.New("record not found")
)

type table string

const (
	listingsTable table = "listings"
	offersTable   table = "offers"
	auctionsTable table = "auctions"
)

var tables = []table{listingsTable, offersTable, auctionsTable}

// Store holds the marketplace records. Update* and Upsert* run fn atomically against the stored
// record and persist it only when fn returns nil. fn must not call out of the process.
type Store interface {
	GetListing(key entity.AssetKey) (*entity.Listing, error)
	GetListings() ([]entity.Listing, error)
	SaveListing(listing entity.Listing) error
	UpdateListing(key entity.AssetKey, fn func(listing *entity.Listing) error) (*entity.Listing, error)
	UpsertListing(key entity.AssetKey, fn func(listing *entity.Listing, found bool) error) (*entity.Listing, error)
	DeleteListing(key entity.AssetKey) error

	GetOffer(key entity.OfferKey) (*entity.Offer, error)
	GetOffersForAsset(key entity.AssetKey) ([]entity.Offer, error)
	SaveOffer(offer entity.Offer) error
	UpdateOffer(key entity.OfferKey, fn func(offer *entity.Offer) error) (*entity.Offer, error)
	UpsertOffer(key entity.OfferKey, fn func(offer *entity.Offer, found bool) error) (*entity.Offer, error)
	DeleteOffer(key entity.OfferKey) error

	GetAuction(key entity.AssetKey) (*entity.Auction, error)
	GetAuctions() ([]entity.Auction, error)
	SaveAuction(auction entity.Auction) error
	UpdateAuction(key entity.AssetKey, fn func(auction *entity.Auction) error) (*entity.Auction, error)
	UpsertAuction(key entity.AssetKey, fn func(auction *entity.Auction, found bool) error) (*entity.Auction, error)
	DeleteAuction(key entity.AssetKey) error

	Close() error
}

// backend is a set of keyed byte tables.
type backend interface {
	get(t table, key string) ([]byte, error)
	put(t table, key string, value []byte) error
	delete(t table, key string) error
	// upsert passes a nil value and found=false for a missing key.
	upsert(t table, key string, fn func(value []byte, found bool) ([]byte, error)) error
	scan(t table, prefix string, fn func(key string, value []byte) error) error
	close() error
}

type store struct {
	backend backend
}

func newStore(b backend) Store {
	return store{b}
}

func (s store) GetListing(key entity.AssetKey) (*entity.Listing, error) {
	var listing entity.Listing
	if err := s.get(listingsTable, key.Slug(), &listing, ErrListingNotFound); err != nil {
		return nil, err
	}

	return &listing, nil
}

func (s store) GetListings() ([]entity.Listing, error) {
	listings := make([]entity.Listing, 0)
	err := s.backend.scan(listingsTable, "", func(key string, value []byte) error {
		var listing entity.Listing
		if err := json.Unmarshal(value, &listing); err != nil {
			return err
		}
		listings = append(listings, listing)
		return nil
	})

	return listings, err
}

func (s store) SaveListing(listing entity.Listing) error {
	return s.put(listingsTable, listing.Slug(), listing)
}

func (s store) UpdateListing(key entity.AssetKey, fn func(listing *entity.Listing) error) (*entity.Listing, error) {
	return s.UpsertListing(key, func(listing *entity.Listing, found bool) error {
		if !found {
			return ErrListingNotFound
		}
		return fn(listing)
	})
}

func (s store) UpsertListing(key entity.AssetKey, fn func(listing *entity.Listing, found bool) error) (*entity.Listing, error) {
	var listing entity.Listing
	err := s.upsert(listingsTable, key.Slug(), func(value []byte, found bool) (interface{}, error) {
		if found {
			if err := json.Unmarshal(value, &listing); err != nil {
				return nil, err
			}
		}
		if err := fn(&listing, found); err != nil {
			return nil, err
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}

	return &listing, nil
}

func (s store) DeleteListing(key entity.AssetKey) error {
	return s.backend.delete(listingsTable, key.Slug())
}

func (s store) GetOffer(key entity.OfferKey) (*entity.Offer, error) {
	var offer entity.Offer
	if err := s.get(offersTable, key.Slug(), &offer, ErrOfferNotFound); err != nil {
		return nil, err
	}

	return &offer, nil
}

func (s store) GetOffersForAsset(key entity.AssetKey) ([]entity.Offer, error) {
	offers := make([]entity.Offer, 0)
	err := s.backend.scan(offersTable, entity.OfferPrefix(key), func(k string, value []byte) error {
		var offer entity.Offer
		if err := json.Unmarshal(value, &offer); err != nil {
			return err
		}
		offers = append(offers, offer)
		return nil
	})

	return offers, err
}

func (s store) SaveOffer(offer entity.Offer) error {
	return s.put(offersTable, offer.Slug(), offer)
}

func (s store) UpdateOffer(key entity.OfferKey, fn func(offer *entity.Offer) error) (*entity.Offer, error) {
	return s.UpsertOffer(key, func(offer *entity.Offer, found bool) error {
		if !found {
			return ErrOfferNotFound
		}
		return fn(offer)
	})
}

func (s store) UpsertOffer(key entity.OfferKey, fn func(offer *entity.Offer, found bool) error) (*entity.Offer, error) {
	var offer entity.Offer
	err := s.upsert(offersTable, key.Slug(), func(value []byte, found bool) (interface{}, error) {
		if found {
			if err := json.Unmarshal(value, &offer); err != nil {
				return nil, err
			}
		}
		if err := fn(&offer, found); err != nil {
			return nil, err
		}
		return offer, nil
	})
	if err != nil {
		return nil, err
	}

	return &offer, nil
}

func (s store) DeleteOffer(key entity.OfferKey) error {
	return s.backend.delete(offersTable, key.Slug())
}

func (s store) GetAuction(key entity.AssetKey) (*entity.Auction, error) {
	var auction entity.Auction
	if err := s.get(auctionsTable, key.Slug(), &auction, ErrAuctionNotFound); err != nil {
		return nil, err
	}

	return &auction, nil
}

func (s store) GetAuctions() ([]entity.Auction, error) {
	auctions := make([]entity.Auction, 0)
	err := s.backend.scan(auctionsTable, "", func(key string, value []byte) error {
		var auction entity.Auction
		if err := json.Unmarshal(value, &auction); err != nil {
			return err
		}
		auctions = append(auctions, auction)
		return nil
	})

	return auctions, err
}

func (s store) SaveAuction(auction entity.Auction) error {
	return s.put(auctionsTable, auction.Slug(), auction)
}

func (s store) UpdateAuction(key entity.AssetKey, fn func(auction *entity.Auction) error) (*entity.Auction, error) {
	return s.UpsertAuction(key, func(auction *entity.Auction, found bool) error {
		if !found {
			return ErrAuctionNotFound
		}
		return fn(auction)
	})
}

func (s store) UpsertAuction(key entity.AssetKey, fn func(auction *entity.Auction, found bool) error) (*entity.Auction, error) {
	var auction entity.Auction
	err := s.upsert(auctionsTable, key.Slug(), func(value []byte, found bool) (interface{}, error) {
		if found {
			if err := json.Unmarshal(value, &auction); err != nil {
				return nil, err
			}
		}
		if err := fn(&auction, found); err != nil {
			return nil, err
		}
		return auction, nil
	})
	if err != nil {
		return nil, err
	}

	return &auction, nil
}

func (s store) DeleteAuction(key entity.AssetKey) error {
	return s.backend.delete(auctionsTable, key.Slug())
}

func (s store) Close() error {
	return s.backend.close()
}

func (s store) get(t table, key string, v interface{}, notFound error) error {
	value, err := s.backend.get(t, key)
	if errors.Is(err, errRecordNotFound) {
		return notFound
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(value, v)
}

func (s store) put(t table, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.backend.put(t, key, value)
}

func (s store) upsert(t table, key string, fn func(value []byte, found bool) (interface{}, error)) error {
	return s.backend.upsert(t, key, func(value []byte, found bool) ([]byte, error) {
		v, err := fn(value, found)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
}
