package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/presbrey/b64/config"
	"github.com/presbrey/b64/profiles"
	"github.com/presbrey/b64/server"
)

func main() {
	configPath := flag.String("config", "", "config file or URL (yaml, toml or json); defaults to $B64_CONFIG")
	envFile := flag.String("env-file", ".env", "name of the env files to load from the directory tree")
	quiet := flag.Bool("quiet", false, "suppress env file loading logs")
	flag.Parse()

	log.SetFlags(log.Lshortfile | log.LstdFlags)

	if _, err := config.LoadEnvTree(&config.EnvTreeConfig{EnvFileName: *envFile, Silent: *quiet}); err != nil {
		log.Fatalf("Failed to load env files: %v", err)
	}

	source := *configPath
	if source == "" {
		source = os.Getenv("B64_CONFIG")
	}
	cfg, err := config.Load(source)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := profiles.Open(profiles.Dialector(cfg.Store.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	defer store.Close()

	srv, err := server.New(cfg, store)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
