package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"modelmarket/go-backend/internal/composition/daemonserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "127.0.0.1:8787", "JSON-RPC listen address")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	dataDir := flag.String("data-dir", "", "Directory for the encrypted ledger snapshot (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-MKT-RPC-Token (optional)")
	transport := flag.String("transport", "", "Notification transport override: go-waku | mock | none")
	flag.Parse()
	if *showVersion {
		fmt.Printf("modelmarketd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *rpcToken != "" {
		_ = os.Setenv("MKT_RPC_TOKEN", *rpcToken)
	}
	if *transport != "" {
		_ = os.Setenv("MKT_NOTIFY_TRANSPORT", *transport)
	}

	srv, err := daemonserver.NewRPCServerWithOptions(*rpcAddr, *configPath, *dataDir)
	if err != nil {
		log.Fatalf("modelmarketd failed to initialize: %v", err)
	}

	log.Println("modelmarketd starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("modelmarketd failed: %v", err)
	}
	log.Println("modelmarketd stopped")
}
