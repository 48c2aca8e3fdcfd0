// Command loggen appends synthetic log lines to a file at a fixed
// rate. It exists only to exercise logtaild manually and is not part
// of the tail engine itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	path := flag.String("file", "", "path to append lines to (required)")
	interval := flag.Duration("interval", time.Second, "delay between lines")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "loggen: -file is required")
		os.Exit(2)
	}

	f, err := os.OpenFile(*path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("loggen: opening %s: %v", *path, err)
	}
	defer f.Close()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var n int
	for range ticker.C {
		n++
		line := fmt.Sprintf("[%s] loggen sample line %d\n", time.Now().Format(time.RFC3339), n)
		if _, err := f.WriteString(line); err != nil {
			log.Fatalf("loggen: writing to %s: %v", *path, err)
		}
	}
}
