package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"change-monitor/core/config"
	"change-monitor/feature/modules"

	"github.com/spf13/afero"
)

// Prints the snapshot units a module would write for one raw Jamf object.
//
//	go run ./cmd/debug_normalize scripts < script.json
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_normalize <module> [file]")
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

	var in io.Reader = os.Stdin
	if len(os.Args) > 2 {
		f, err := os.Open(os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	dec := json.NewDecoder(in)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		log.Fatal(err)
	}

	rec, err := module.Normalizer.Normalize(raw)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Module: %s\nID: %s\nName: %s\n", module.Name, rec.ID, rec.Name)
	for _, unit := range rec.Units {
		fmt.Printf("\n=== %s/%s%s (%d bytes) ===\n", module.Name, rec.ID, unit.Suffix, len(unit.Content))
		fmt.Print(string(unit.Content))
	}
}
