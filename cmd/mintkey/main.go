// Package main provides a CLI tool for minting and listing API key
// accounts directly against the configured store, bypassing the admin
// HTTP endpoints. Useful for bootstrapping the first account.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/identity"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	ownerID := flag.String("owner", "", "owner ID to register (required unless -list)")
	name := flag.String("name", "", "display name for the account (required unless -list)")
	list := flag.Bool("list", false, "list registered accounts instead of minting")
	flag.Parse()

	if !*list && (*ownerID == "" || *name == "") {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var accounts identity.AccountStore
	if cfg.Storage.Backend == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.Database)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer pool.Close()
		accounts = postgres.NewAccountRepository(pool.DB())
	} else {
		accounts, err = identity.NewFileStore(cfg.Storage.AccountsFile)
		if err != nil {
			log.Fatalf("opening account store: %v", err)
		}
	}

	svc := identity.NewService(accounts)

	if *list {
		all, err := svc.List(ctx)
		if err != nil {
			log.Fatalf("listing accounts: %v", err)
		}
		for _, acct := range all {
			fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n",
				acct.OwnerID, acct.Name, acct.CreatedAt.Format(time.RFC3339))
		}
		return
	}

	_, key, err := svc.Register(ctx, *ownerID, *name)
	if err != nil {
		log.Fatalf("registering %q: %v", *ownerID, err)
	}

	elapsed := time.Since(start)
	// The plaintext key exists only in this output; the store keeps a hash.
	fmt.Fprintf(os.Stdout, "registered %s (%s) [%s]\napi_key: %s\n",
		*ownerID, *name, elapsed, key)
}
