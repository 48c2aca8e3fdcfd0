// Command logtaild runs the log tailing service: process bootstrap,
// flag/config handling, and graceful shutdown around the tail engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverbend/logtail/internal/config"
	"github.com/riverbend/logtail/internal/httpapi"
	"github.com/riverbend/logtail/internal/registry"
	"github.com/riverbend/logtail/internal/wsapi"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logtaild [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Real-time log tailing service.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	configPath := flag.String("config", "", "path to a YAML config file (optional; defaults are used if absent)")
	port := flag.Int("port", 0, "HTTP/WebSocket port (overrides config)")
	host := flag.String("host", "", "bind host (overrides config)")
	poll := flag.Bool("poll", false, "force the polling watch fallback instead of native change notification")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("logtaild: loading config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *poll {
		cfg.Tail.Poll = true
	}

	reg := registry.New(cfg.Tail.BackfillLines, cfg.Tail.Poll)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsapi.NewServer(reg).HandleWebSocket)
	httpapi.NewServer(cfg.Tail.WatchRoots).Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("logtaild: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("logtaild: server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("logtaild: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("logtaild: shutdown error: %v", err)
	}
	reg.Shutdown()
}
