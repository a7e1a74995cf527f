package main

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/zilliqa"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

var client *api.Client

func main() {
	config.Init()

	client = api.NewClient(config.Get().Api.Url, config.Get().Api.AdminToken)

	assetFlags := []cli.Flag{
		&cli.StringFlag{Name: "collection", Required: true, Usage: "collection contract address"},
		&cli.Uint64Flag{Name: "tokenId", Required: true, Usage: "token id"},
	}

	app := &cli.App{
		Name:  "marketplace",
		Usage: "administer a running marketplace",
		Commands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check the marketplace is up",
				Action: health,
			},
			{
				Name:   "fee",
				Usage:  "Show the platform fee",
				Action: fee,
			},
			{
				Name:   "setFee",
				Usage:  "Set the platform fee rate (parts of 100000) and recipient",
				Action: setFee,
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "bps", Required: true, Usage: "fee rate, 1000 is 1%"},
					&cli.StringFlag{Name: "recipient", Required: true, Usage: "fee recipient address"},
				},
			},
			{
				Name:   "listings",
				Usage:  "List active listings",
				Action: listings,
			},
			{
				Name:   "offers",
				Usage:  "List active offers on an asset",
				Action: offers,
				Flags:  assetFlags,
			},
			{
				Name:   "auction",
				Usage:  "Show the auction of an asset",
				Action: auction,
				Flags:  assetFlags,
			},
			{
				Name:   "completeBid",
				Usage:  "Settle an ended auction",
				Action: completeBid,
				Flags:  assetFlags,
			},
			{
				Name:   "chainStatus",
				Usage:  "Show the chain network and the escrow account's on-chain balance",
				Action: chainStatus,
			},
			{
				Name:   "importCollection",
				Usage:  "Read a ZRC6 collection from chain and report what would be imported",
				Action: importCollection,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Required: true, Usage: "collection contract address"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to run CLI")
	}
}

func health(c *cli.Context) error {
	status, err := client.Health()
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, status)
}

func fee(c *cli.Context) error {
	feeConfig, err := client.PlatformFee()
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, feeConfig)
}

func setFee(c *cli.Context) error {
	feeConfig, err := client.SetPlatformFee(c.Uint("bps"), c.String("recipient"))
	if err != nil {
		return err
	}
	zap.L().With(zap.Uint("bps", feeConfig.PlatformFeeBps), zap.String("recipient", feeConfig.FeeRecipient)).Info("Platform fee updated")

	return dev.Dump(os.Stdout, feeConfig)
}

func listings(c *cli.Context) error {
	listings, err := client.Listings()
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, listings)
}

func offers(c *cli.Context) error {
	offers, err := client.Offers(c.String("collection"), c.Uint64("tokenId"))
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, offers)
}

func auction(c *cli.Context) error {
	auction, err := client.Auction(c.String("collection"), c.Uint64("tokenId"))
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, auction)
}

func completeBid(c *cli.Context) error {
	settlement, err := client.CompleteBid(c.String("collection"), c.Uint64("tokenId"))
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, settlement)
}

func chainStatus(c *cli.Context) error {
	chain, err := newZilliqa()
	if err != nil {
		return err
	}

	networkId, err := chain.GetNetworkId()
	if err != nil {
		return err
	}
	balance, err := chain.GetBalance(config.Get().Marketplace.Address)
	if err != nil {
		return err
	}

	return dev.Dump(os.Stdout, map[string]interface{}{
		"network": networkId,
		"escrow":  config.Get().Marketplace.Address,
		"balance": balance.Balance,
		"nonce":   balance.Nonce,
	})
}

func importCollection(c *cli.Context) error {
	chain, err := newZilliqa()
	if err != nil {
		return err
	}

	ledger := custody.NewLedger(config.Get().Marketplace.Address)
	importer := custody.NewChainImporter(chain, ledger)

	collection := c.String("collection")
	tokens, err := importer.ImportCollection(collection)
	if err != nil {
		return err
	}

	royalty, err := ledger.RoyaltyOf(collection)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d tokens from %s\n", tokens, collection)
	return dev.Dump(os.Stdout, royalty)
}

func newZilliqa() (zilliqa.Service, error) {
	rpc, err := zilliqa.NewClient(config.Get().Zilliqa.Url, config.Get().Zilliqa.Timeout, config.Get().Zilliqa.Debug)
	if err != nil {
		return nil, err
	}

	return zilliqa.NewZilliqaService(zilliqa.NewProvider(rpc)), nil
}
