package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"wabridge/internal/auth"
	"wabridge/internal/config"
	"wabridge/internal/handler"
	"wabridge/internal/hub"
	"wabridge/internal/server"
	"wabridge/internal/session"
	"wabridge/internal/store"
	"wabridge/internal/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)
	users := store.NewUsersWithOptions(store.Options{StateFile: cfg.UsersFile})

	tokenCfg := auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "wabridge",
	}

	wsHub := hub.New()
	factory := &transport.LoopbackFactory{PairDelay: cfg.PairDelay}
	registry := session.NewRegistry(factory, &handler.HubNotifier{Hub: wsHub})

	// Sessions are memory-only: release transport handles on shutdown.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		registry.Close()
		os.Exit(0)
	}()

	router := server.NewRouter(server.Deps{
		Users:       users,
		Registry:    registry,
		Hub:         wsHub,
		TokenConfig: tokenCfg,
	})
	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	log.Fatal(server.Run(cfg, router))
}
