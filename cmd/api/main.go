package main

import (
	"context"
	"log"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/logger"
	"scan-station/internal/core/server"
	"scan-station/internal/core/store"
	bookingadapter "scan-station/internal/features/booking/adapters"
	bookingservice "scan-station/internal/features/booking/service"
	labelhandler "scan-station/internal/features/labels/handler"
	orderadapter "scan-station/internal/features/orders/adapters"
	orderhandler "scan-station/internal/features/orders/handler"
	orderservice "scan-station/internal/features/orders/service"
	pipelineadapter "scan-station/internal/features/pipeline/adapters"
	pipelinehandler "scan-station/internal/features/pipeline/handler"
	pipelineservice "scan-station/internal/features/pipeline/service"
	sessionadapter "scan-station/internal/features/session/adapters"
	sessionhandler "scan-station/internal/features/session/handler"
	sessionservice "scan-station/internal/features/session/service"
	"scan-station/internal/jobs"

	"go.uber.org/zap"
)

// @title Scan Station API
// @version 1.0
// @description Warehouse scan station: scan-driven carrier booking, label printing and order fulfillment.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Station store. The booked ledger and pack plans live here; without it
	// the station cannot safely book anything.
	st, err := store.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		l.Fatal("Failed to connect to store", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		l.Fatal("Store health check failed", zap.Error(err))
	}
	l.Info("Store connection verified")

	// Order platform adapters.
	shopifyAdapter := orderadapter.NewShopifyAdapter(cfg.Shopify)
	fulfillmentAdapter := orderadapter.NewShopifyFulfillmentAdapter(cfg.Shopify)

	// Orders feature.
	orderService := orderservice.NewOrderService(shopifyAdapter, st)
	orderHandler := orderhandler.NewOrderHandler(orderService)

	// Carrier booking workflow.
	carrierAdapter := bookingadapter.NewParcelPerfectAdapter(cfg.Carrier)
	bookingService := bookingservice.NewBookingService(carrierAdapter, cfg.Booking, cfg.Origin)

	// Milestone pipeline.
	printAdapter := pipelineadapter.NewPrintNodeAdapter(cfg.PrintNode)
	pipelineService := pipelineservice.NewPipelineService(
		pipelineadapter.NewPlanRepository(st),
		pipelineadapter.NewCompletedLedgerRepository(st),
		pipelineadapter.NewNoteRepository(st),
		printAdapter,
		bookingService,
		fulfillmentAdapter,
		shopifyAdapter,
	)
	pipelineHandler := pipelinehandler.NewPipelineHandler(pipelineService)

	// Scan session.
	bookedLedger := sessionadapter.NewBookedLedgerRepository(st)
	sessionService := sessionservice.NewSessionService(bookedLedger, shopifyAdapter, pipelineService, cfg.Booking)
	sessionHandler := sessionhandler.NewSessionHandler(sessionService)

	labelHandler := labelhandler.NewLabelHandler()

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/scan", sessionHandler.Scan)
	srv.App.Post("/book", sessionHandler.Book)
	srv.App.Post("/reset", sessionHandler.Reset)
	srv.App.Get("/session", sessionHandler.GetSession)
	srv.App.Put("/session/overrides", sessionHandler.PutOverrides)
	srv.App.Put("/session/parcel-count", sessionHandler.PutParcelCount)
	srv.App.Post("/ledger/reset", sessionHandler.ResetLedger)

	srv.App.Get("/orders/open", orderHandler.GetOpenOrders)
	srv.App.Post("/orders/open/refresh", orderHandler.RefreshOpenOrders)
	srv.App.Get("/orders/:name", orderHandler.GetOrder)

	srv.App.Get("/plans", pipelineHandler.GetPlans)
	srv.App.Get("/plans/:order", pipelineHandler.GetPlan)
	srv.App.Post("/plans/:order/allocate", pipelineHandler.Allocate)
	srv.App.Post("/plans/:order/retry/:stage", pipelineHandler.RetryStage)
	srv.App.Get("/plans/:order/labels", pipelineHandler.GetLabels)
	srv.App.Get("/completed", pipelineHandler.GetCompleted)
	srv.App.Get("/notes/:order", pipelineHandler.GetNote)
	srv.App.Put("/notes/:order", pipelineHandler.PutNote)

	srv.App.Get("/labels/barcode/:code", labelHandler.GetBarcode)

	// Background worklist refresh.
	jobManager := jobs.NewJobManager(orderService)
	if err := jobManager.StartAll(); err != nil {
		l.Fatal("Failed to start scheduled jobs", zap.Error(err))
	}
	defer jobManager.StopAll()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
