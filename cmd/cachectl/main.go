// Command cachectl clears the catalog cache.
//
//	cachectl clear-products         forget the listing grid and every product key
//	cachectl clear-products --all   forget every registered cache key
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/internal/caching"
	"storefront/internal/config"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/database"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("cachectl failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cachectl clear-products [--all]")
}

// parseArgs validates the command line and reports whether --all was given.
func parseArgs(args []string) (bool, error) {
	if len(args) == 0 || args[0] != "clear-products" {
		usage()
		return false, fmt.Errorf("unknown command %q", firstArg(args))
	}

	fs := flag.NewFlagSet("clear-products", flag.ContinueOnError)
	all := fs.Bool("all", false, "forget every registered cache key instead of the product keys")
	fs.Usage = usage
	if err := fs.Parse(args[1:]); err != nil {
		return false, err
	}
	if fs.NArg() > 0 {
		usage()
		return false, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	return *all, nil
}

func run(args []string) error {
	all, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	if all {
		n, err := services.NewCacheInvalidationService(nil, cacheSvc).ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d registered cache keys.\n", n)
		return nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	invalidator := services.NewCacheInvalidationService(repositories.NewProductRepo(pool), cacheSvc)
	n, err := invalidator.ClearProducts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Product cache cleared successfully (%d keys).\n", n)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
