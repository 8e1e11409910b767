package main

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/fanloft-app/backend/internal/router"
	"github.com/fanloft-app/backend/internal/validators"
	"github.com/fanloft-app/backend/pkg/config"
	"github.com/fanloft-app/backend/pkg/firebase"
	"github.com/fanloft-app/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.Init(cfg.Env)
	defer log.Sync()

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Firebase is optional: without credentials only the local JWT auth
	// path is available.
	var firebaseAuthClient *fbauth.Client
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatal("failed to initialize Firebase", zap.Error(err))
		}
		firebaseAuthClient = app.AuthClient
	} else {
		log.Warn("FIREBASE_CREDENTIALS_PATH not set, Firebase auth disabled")
	}

	e := echo.New()
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e)
	router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseAuthClient, cfg.JWTSecret, log)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
