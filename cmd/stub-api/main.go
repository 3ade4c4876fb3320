package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/lead-cleaner/internal/stubapi"
)

func main() {
	addr := flag.String("addr", "", "listen address (default :$PORT or :8090)")
	failFirst := flag.String("fail-first", "", `inject failures, e.g. "/posts=2:503,/users=1:429"`)
	invalidJSON := flag.String("invalid-json", "", `paths answering with a broken body, e.g. "/comments"`)
	flag.Parse()

	log.Println("Starting lead-cleaner STUB API (fixture responses for local testing only)...")

	if *addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8090"
		}
		*addr = ":" + port
	}

	failures, err := parseFailures(*failFirst)
	if err != nil {
		log.Fatalf("Invalid -fail-first: %v", err)
	}
	broken := map[string]bool{}
	for _, p := range splitList(*invalidJSON) {
		broken[p] = true
	}

	server := &http.Server{
		Addr: *addr,
		Handler: stubapi.NewRouter(stubapi.Options{
			Fixtures:    stubapi.DefaultFixtures(),
			FailFirst:   failures,
			InvalidJSON: broken,
			Logging:     true,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// parseFailures reads "path=count:status" pairs separated by commas.
func parseFailures(s string) (map[string]stubapi.Failure, error) {
	out := map[string]stubapi.Failure{}
	for _, item := range splitList(s) {
		path, rule, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%q: want path=count:status", item)
		}
		countStr, statusStr, ok := strings.Cut(rule, ":")
		if !ok {
			return nil, fmt.Errorf("%q: want path=count:status", item)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("%q: count: %w", item, err)
		}
		status, err := strconv.Atoi(statusStr)
		if err != nil || status < 100 || status > 599 {
			return nil, fmt.Errorf("%q: bad status %q", item, statusStr)
		}
		out[path] = stubapi.Failure{Count: count, Status: status}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
