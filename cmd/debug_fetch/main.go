package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"change-monitor/core/config"
	"change-monitor/core/fetch"
	"change-monitor/core/jamf"
	"change-monitor/feature/modules"

	"github.com/spf13/afero"
)

// Fetches one module from Jamf Pro and prints what was returned, without
// touching the snapshot.
//
//	go run ./cmd/debug_fetch computergroups
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_fetch <module>")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	registry, err := modules.Load(afero.NewOsFs(), cfg.Modules)
	if err != nil {
		log.Fatal(err)
	}
	module, ok := registry.Get(os.Args[1])
	if !ok {
		log.Fatalf("unknown module %q (available: %v)", os.Args[1], registry.Names())
	}

	client, err := jamf.NewClient(cfg.Jamf, nil)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	fmt.Printf("Fetching %s (%s)...\n", module.Name, module.Query.Path)
	res, err := fetch.New(client, nil).FetchAll(ctx, module.Query)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Fetched %d objects, %d details skipped\n", len(res.Raws), len(res.Skipped))

	failed := 0
	for _, raw := range res.Raws {
		rec, err := module.Normalizer.Normalize(raw)
		if err != nil {
			failed++
			fmt.Printf("  ! %v\n", err)
			continue
		}
		fmt.Printf("  %s\t%s\t%d units\n", rec.ID, rec.Name, len(rec.Units))
	}
	for _, id := range res.Skipped {
		fmt.Printf("  ? %s (detail failed)\n", id)
	}
	if failed > 0 {
		fmt.Printf("%d objects failed to normalize\n", failed)
	}
}
