package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/wndudzz6/github-profile-api/cache"
	"github.com/wndudzz6/github-profile-api/client"
	"github.com/wndudzz6/github-profile-api/config"
	"github.com/wndudzz6/github-profile-api/controller"
	"github.com/wndudzz6/github-profile-api/logger"
	"github.com/wndudzz6/github-profile-api/service"
)

func main() {
	// .env is optional, deployments usually set real environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, relying on the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Warn("unable to load configuration file, using defaults")
		cfg = config.GetDefault()
		cfg.ApplyEnvOverrides()
	}

	// configure logger
	logger.Setup(*cfg)

	// setup the cache backend shared by the revalidation and profile caches
	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		log.WithError(err).Panic("unable to setup the cache backend")
	}

	revalidationCache := cache.NewRevalidationCache(store)
	profileCache := cache.NewProfileCache(store, time.Duration(cfg.Cache.ProfileTTLSeconds)*time.Second)

	// setup the upstream client here and pass it down, this keeps the
	// services easy to test with a mock http client
	githubClient := client.NewGithubClient(cfg.Github, nil)

	if cfg.Github.Token != "" {
		log.Debug("github client configured with an authorization token")
	}

	// setup handlers and services
	languageService := service.NewLanguageService(*cfg, githubClient, revalidationCache)
	profileService := service.NewProfileService(*cfg, githubClient, languageService)
	apiController := controller.NewAPIController(*cfg, profileService, profileCache)

	// setup server and define all routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &http.Server{
		Addr:    ":" + cfg.API.ListenPort,
		Handler: router,
	}

	router.Use(
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Content-Type, Content-Length, Accept-Encoding, Host, accept, Origin, Cache-Control, X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/", apiController.Index)

	api := router.Group("/api")
	{
		api.GET("/profile", apiController.GetProfile)
	}

	// start with configuration
	go func() {
		log.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
		}

	}()

	// create context with 15 seconds timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Application stopped gracefully !")
	}
}
