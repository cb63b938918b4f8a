package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timebank/internal/config"
	"timebank/internal/db"
	"timebank/internal/directory"
	"timebank/internal/handlers"
	"timebank/internal/services"
	"timebank/internal/store"
	"timebank/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	allocations := store.NewAllocationStore(database)
	holds := store.NewHoldStore(database)
	charges := store.NewChargeStore(database)
	refunds := store.NewRefundStore(database)
	limits := store.NewCreditLimitStore(database)
	factors := store.NewUnitFactorStore(database)
	jobs := store.NewJobStore(database)
	reports := store.NewReportStore(database)
	audit := store.NewAuditStore(database)
	dir := directory.NewSQLDirectory(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	service := services.NewLedgerService(txRunner, database, allocations, holds, charges, refunds, limits, factors, users, jobs, reports, audit, dir, hub)

	handler := handlers.New(cfg, txRunner, users, allocations, holds, charges, refunds, limits, factors, jobs, audit, dir, service, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("timebank API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
