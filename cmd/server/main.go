package main

import (
	log "github.com/sirupsen/logrus"

	_ "vaultboard/docs"
	"vaultboard/internal/config"
	"vaultboard/internal/server"
)

// @title           Vaultboard API
// @version         1.0
// @description     API for kanban boards backed by markdown task files.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
