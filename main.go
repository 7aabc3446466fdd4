package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopbooks/api"
	"shopbooks/internal/config"
	"shopbooks/internal/database"
	"shopbooks/internal/expenses"
	"shopbooks/internal/inventory"
	"shopbooks/internal/reports"
	"shopbooks/internal/sales"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(fmt.Errorf("error creating logger: %v", err))
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", string(database.DriverFor(cfg.DatabaseDSN))), zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	salesService := sales.NewService(sales.NewGormStorage(db), logger.Named("sales"))
	inventoryService := inventory.NewService(inventory.NewGormStorage(db), logger.Named("inventory"))
	expenseService := expenses.NewService(expenses.NewGormStorage(db), logger.Named("expenses"))
	reportService := reports.NewService(salesService, expenseService, inventoryService, logger.Named("reports"))

	r := gin.New()
	r.Use(gin.Recovery())
	api.InitRoutes(r, api.Services{
		Sales:     salesService,
		Inventory: inventoryService,
		Expenses:  expenseService,
		Reports:   reportService,
	}, logger)

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.Env))
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
