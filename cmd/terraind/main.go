// Command terraind runs one TerrainGossip node: it wires the store, terrain
// index, validation pipeline, belief aggregator and gossip engine together
// and exposes the producer API (§6.2) to whatever probers and routers share
// the process. Daemon packaging, CLI flag parsing beyond the config path,
// and process supervision are explicitly out of scope (§1 Non-goals); this
// file only needs to exist so the module has a runnable composition root,
// the way itinance-hypersdk/examples/tokenvm wires its VM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rng-ops/gossip/internal/ratelog"
	"github.com/rng-ops/gossip/internal/worldcfg"
)

func main() {
	configPath := flag.String("config", "terraind.yaml", "path to node configuration")
	flag.Parse()

	cfg, err := worldcfg.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terraind: %v\n", err)
		os.Exit(1)
	}

	ratelog.Init("INFO")
	log := ratelog.New("terraind")

	node, err := NewNode(cfg, log)
	if err != nil {
		log.Warnf("terraind: construct node failed: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infof("terraind starting, world=%s listen=%s", ratelog.World(node.world), cfg.ListenAddr)
	if err := node.Run(ctx); err != nil && ctx.Err() == nil {
		log.Warnf("terraind: node stopped: %v", err)
		os.Exit(1)
	}
}
