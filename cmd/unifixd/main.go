package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/quailyquaily/unifix"
	"github.com/quailyquaily/unifix/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	plainHTTP2 := flag.Bool("h2c", true, "accept HTTP/2 without TLS")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(listenAddr(*addr, os.Getenv("PORT")), *plainHTTP2); err != nil {
		log.Fatalf("unifixd: %v", err)
	}
}

// listenAddr lets a PORT variable override the flag, as set by most
// container platforms.
func listenAddr(flagAddr, port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return flagAddr
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func run(addr string, plainHTTP2 bool) error {
	cfg, err := unifix.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	client := unifix.New(cfg)
	view := client.GetConfig()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	var handler http.Handler = server.New(client, server.Options{Logger: true})
	if plainHTTP2 {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("unifixd listening on %s (provider=%s fallback=%v)", addr, view.Provider, view.UseFallback)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("unifixd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
