package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"blog/api/handlers"
	"blog/api/routes"
	"blog/config"
	"blog/db"
	"blog/services"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Config %s not found, using defaults", configPath)
		config.AppConfig, err = config.Parse(nil)
	}
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(config.AppConfig); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	defer db.Close()

	redisClient, err := services.InitRedis(config.AppConfig)
	if err != nil {
		log.Printf("ERROR: Redis is unavailable, public feed cache disabled: %v", err)
	}
	cache := services.NewFeedCache(redisClient, config.AppConfig.Redis.FeedCacheTTL)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := services.NewWSConnManager()
	var bus *services.EventBus
	if url := config.AppConfig.RabbitMQ.URL; url != "" {
		bus, err = services.DialRabbitMQ(url, config.AppConfig.RabbitMQ.Exchange)
		if err != nil {
			log.Printf("ERROR: RabbitMQ is unavailable, notifications go directly to WebSocket: %v", err)
		} else {
			defer bus.Close()
			if err := bus.StartConsumer(ctx, config.AppConfig.RabbitMQ.Queue, ws); err != nil {
				log.Printf("ERROR: Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}
	notifier := services.NewNotifier(bus, ws)

	h := handlers.New(db.NewStore(db.ORM), config.AppConfig, cache, notifier)
	router := routes.NewRouter(h)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
