package event

type Type string

const (
	ListingCreatedEvent   Type = "ListingCreatedEvent"
	ListingCancelledEvent Type = "ListingCancelledEvent"
	OfferMadeEvent        Type = "OfferMadeEvent"
	OfferWithdrawnEvent   Type = "OfferWithdrawnEvent"
	AuctionCreatedEvent   Type = "AuctionCreatedEvent"
	AuctionCancelledEvent Type = "AuctionCancelledEvent"
	BidPlacedEvent        Type = "BidPlacedEvent"
	SettlementEvent       Type = "SettlementEvent"
	ReconciliationEvent   Type = "ReconciliationEvent"
	FeeUpdatedEvent       Type = "FeeUpdatedEvent"
)
