package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"retwis/api/middleware"
	"retwis/api/routes"
	"retwis/config"
	"retwis/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...", config.AppConfig)

	if err := services.InitRedis(); err != nil {
		panic("Failed to connect to Redis: " + err.Error())
	}
	defer services.CloseRedis()

	ctx := context.Background()

	// RabbitMQ и push-консьюмер не обязательны для работы ядра:
	// без брокера события ленты уходят напрямую в WebSocket
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("RabbitMQ unavailable, feed events will use direct WebSocket delivery: %v", err)
	} else {
		defer services.CloseRabbitMQ()
		if err := services.StartFeedEventConsumer(ctx, "feed_push"); err != nil {
			log.Printf("Failed to start feed consumer: %v", err)
		}
	}

	if config.AppConfig.Fanout.Async {
		services.QueueServiceInstance.StartWorkers(ctx)
	}

	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("retwis"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.PublicApi(router)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if addr == ":0" {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
