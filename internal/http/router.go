package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentals/internal/http/middleware"
)

type RouterConfig struct {
	Environment    string
	AllowedOrigins []string
	DocumentsDir   string
}

func NewRouter(handler *Handler, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AccessLog(log))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	if cfg.DocumentsDir != "" {
		router.Static("/contracts", cfg.DocumentsDir)
	}

	handler.Register(router)
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
