// Command storyline is the headless host for the engine: it logs in,
// opens the local cache, and follows dashboard updates until
// interrupted. Hosts embedding the engine wire the same pieces in the
// same order.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/auth"
	"github.com/brightleaf/storyline/internal/config"
	"github.com/brightleaf/storyline/internal/dashboard"
	"github.com/brightleaf/storyline/internal/localstore"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cache, err := localstore.Open(ctx, localstore.Driver(cfg.CacheDriver), cfg.CacheDSN)
	if err != nil {
		log.Fatalf("cache open failed: %v", err)
	}
	defer cache.Close()

	var session *auth.Session
	if cfg.AuthToken != "" {
		session = auth.NewSession(cfg.AuthToken)
	} else {
		username := os.Getenv("STORYLINE_USER")
		password := os.Getenv("STORYLINE_PASS")
		if username == "" {
			log.Fatal("AUTH_TOKEN or STORYLINE_USER is required")
		}
		session, err = auth.Login(ctx, &http.Client{Timeout: cfg.HTTPTimeout},
			cfg.APIBaseURL, username, password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}
	log.Printf("signed in as %s (%s)", session.Claims().Subject, session.Claims().Role)

	client := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Tokens:  session,
	})

	poller := dashboard.NewPoller(client, cfg.PollInterval, func(batch []api.Update) {
		for _, u := range batch {
			log.Printf("[%s] %s", u.Type, u.Message)
		}
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	poller.Start(runCtx)
	defer poller.Stop()

	log.Printf("following updates from %s (interval=%s)", cfg.APIBaseURL, cfg.PollInterval)
	<-runCtx.Done()
	log.Print("shutting down")
}
