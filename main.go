package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/errcHuang/weebly-ecommerce-analytics/api"
	"github.com/errcHuang/weebly-ecommerce-analytics/database"
	analyticsapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/application"
	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	geoapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/application"
	geodomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
	geoinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/infrastructure"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment defaults")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("initializing logger:", err)
	}
	defer logger.Sync()

	cache := sharedinfra.NewShardedCache(16)

	pool := sharedinfra.NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	geocoder := buildGeocoder(logger, cache)
	classifier := buildClassifier(logger, cache)

	sales := analyticsapp.NewSalesService(cache)
	revenue := analyticsapp.NewRevenueService(cache)
	segments := analyticsapp.NewSegmentService(classifier, cache, pool)
	export := analyticsapp.NewExportService(revenue, segments)
	geo := geoapp.NewGeoService(geocoder)

	handlers := api.NewHandlers(logger, cache, sales, revenue, segments, export, geo)

	mux := http.NewServeMux()
	handlers.Register(mux)

	port := getEnv("PORT", "8080")
	logger.Info("server listening", zap.String("port", port))
	log.Fatal(http.ListenAndServe(":"+port, mux))
}

// buildGeocoder connects to the zipcode reference table. Without a
// reachable database the map endpoints degrade to empty results instead
// of blocking startup.
func buildGeocoder(logger *zap.Logger, cache sharedinfra.Cache) geodomain.Geocoder {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "analytics"),
		getEnv("DB_PASSWORD", "analytics"),
		getEnv("DB_NAME", "analyticsdb"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := database.Open(connStr)
	if err != nil {
		logger.Warn("zipcode database unavailable, map layers will be empty", zap.Error(err))
		return geoinfra.NoopGeocoder{}
	}
	return geoinfra.NewCachedGeocoder(geoinfra.NewZipcodeRepository(db), cache)
}

// buildClassifier loads the name table from GENDER_NAMES_FILE when set,
// falling back to the built-in table.
func buildClassifier(logger *zap.Logger, cache sharedinfra.Cache) gender.Classifier {
	var base gender.Classifier
	if path := os.Getenv("GENDER_NAMES_FILE"); path != "" {
		loaded, err := gender.LoadTableFile(path)
		if err != nil {
			logger.Warn("loading gender name table, using built-in names",
				zap.String("path", path), zap.Error(err))
			base = gender.NewStaticClassifier(gender.DefaultTable())
		} else {
			base = gender.NewStaticClassifier(loaded)
		}
	} else {
		base = gender.NewStaticClassifier(gender.DefaultTable())
	}
	return gender.NewCachedClassifier(base, cache)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
