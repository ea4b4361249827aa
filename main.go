package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cyberguard/cache"
	"cyberguard/config"
	"cyberguard/database"
	"cyberguard/handlers"
	"cyberguard/logger"
	"cyberguard/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

func main() {
	log.SetOutput(logger.GetWriter())
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("🚀 Starting CyberGuard viewer...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Config error: ", err)
	}
	log.Printf("✓ Config loaded")
	log.Printf("  - Backend: %s", cfg.APIBase)
	log.Printf("  - Port: %s", cfg.Port)
	log.Printf("  - Risk thresholds: %.2f / %.2f", cfg.RiskLowThreshold, cfg.RiskHighThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.InitDB(ctx, cfg.DbUrl); err != nil {
		log.Fatal("❌ Database error: ", err)
	}
	cache.InitRedis(ctx, cfg.RedisUrl)

	rules, err := services.NewRuleStore(cfg.VerdictRulesPath)
	if err != nil {
		log.Fatal("❌ Verdict rules error: ", err)
	}
	if err := rules.Watch(ctx); err != nil {
		log.Printf("⚠ Verdict rules will not hot-reload: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	client := services.NewClient(cfg.APIBase)
	client.Cache = cache.StatusCache{TTL: cfg.StatusCacheTTL}

	renderer := services.NewRenderer(services.Thresholds{Low: cfg.RiskLowThreshold, High: cfg.RiskHighThreshold}, rules)
	renderer.Metrics = metrics

	submitter := services.NewSubmitter(cfg.RequestTimeout)
	submitter.Metrics = metrics

	sessions := services.NewSessionStore(cfg.SessionTTL)
	shares := services.NewShareStore(database.DB, time.Duration(cfg.ShareTTLDays)*24*time.Hour)

	jobs := cron.New()
	if _, err := jobs.AddFunc("@every 10m", func() {
		if n := sessions.Prune(); n > 0 {
			log.Printf("[VIEWER] 🧹 Dropped %d idle sessions", n)
		}
	}); err != nil {
		log.Fatal("❌ Session pruning: ", err)
	}
	if shares.Enabled() {
		if err := shares.ScheduleCleanup(jobs, cfg.ShareCleanupSchedule); err != nil {
			log.Fatal("❌ Share cleanup: ", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	viewer := handlers.NewViewer(handlers.ViewerDeps{
		Config:    cfg,
		Client:    client,
		Renderer:  renderer,
		Submitter: submitter,
		Sessions:  sessions,
		Shares:    shares,
		Metrics:   metrics,
	})
	log.Println("✓ Services initialized")

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           viewer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("🎯 Viewer running on %s\n", cfg.PublicBaseURL)
	fmt.Printf("🔗 Backend: %s\n", cfg.APIBase)
	fmt.Println(strings.Repeat("=", 50) + "\n")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Println("✓ Ready to accept requests...")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("❌ Server error: ", err)
	}
	log.Println("👋 Viewer stopped")
}
