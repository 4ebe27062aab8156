// server hosts the shell page and the HTML fragments the client-side
// controller loads. It is an asset host only: all application state lives in
// the local store on the client side.
package main

import (
	"log"
	"os"
	"path/filepath"

	"finance-tracker/internal/config"
	"finance-tracker/internal/entity"
	"finance-tracker/internal/nav"
	"finance-tracker/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if dir := os.Getenv("WEB_DIR"); dir != "" {
		cfg.WebDir = dir
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := entity.NewService(db).SeedPredefined(); err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	app := newApp(cfg.WebDir)
	log.Printf("serving %s on %s", cfg.WebDir, cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

// newApp builds the fiber application: fragments as static files, and the
// shell page at every canonical route path so deep links land on the shell.
func newApp(webDir string) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(logger.New())

	app.Static("/fragments", filepath.Join(webDir, "fragments"))
	app.Static("/static", filepath.Join(webDir, "static"))

	shell := filepath.Join(webDir, "shell.html")
	for _, path := range nav.PagePaths() {
		app.Get(path, func(c *fiber.Ctx) error {
			return c.SendFile(shell)
		})
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
