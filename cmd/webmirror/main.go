package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/akamensky/argparse"

	"webmirror/internal/proxy"
)

func main() {
	parser := argparse.NewParser("webmirror", "rewriting forwarding proxy")
	addrFlag := parser.String("a", "addr", &argparse.Options{Help: "listen address, e.g. :8080 or 0.0.0.0:8080"})
	cfgFlag := parser.String("c", "config", &argparse.Options{Help: "path to YAML config file"})
	insecureFlag := parser.Flag("k", "insecure", &argparse.Options{Help: "skip TLS certificate verification toward targets"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	cfg := proxy.DefaultConfig()
	if *cfgFlag != "" {
		var err error
		cfg, err = proxy.LoadConfig(*cfgFlag)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *addrFlag != "" {
		cfg.Listen = *addrFlag
	}
	if env := os.Getenv("PORT"); env != "" {
		cfg.Listen = ":" + env
	}
	if *insecureFlag {
		cfg.InsecureTLS = true
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: proxy.New(cfg),
		// Conservative timeouts to avoid slowloris and leaked connections blocking the server
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          log.New(os.Stdout, "HTTPERR ", log.LstdFlags|log.Lmicroseconds),
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatalf("Listen error on %s: %v", cfg.Listen, err)
	}

	log.Println("Listening on", cfg.Listen)
	log.Fatal(srv.Serve(ln))
}
