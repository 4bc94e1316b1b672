package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pdfgrader-server-go/config"
	"pdfgrader-server-go/db"
	"pdfgrader-server-go/handlers"
)

func main() {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load the persisted gradebook (missing or unreadable file starts empty)
	store := db.NewCSVStore(cfg.Paths.GradesCSV)
	store.Load()

	// Create API Handler (scans the submissions folder)
	apiHandler := handlers.NewAPIHandler(store, cfg.Paths.SubmissionsDir, cfg.Paths.GradebookXLSX)

	logStartupSummary(cfg, store, apiHandler)

	// Initialize Gin router
	router := gin.Default()

	// The presentation shell runs on another origin (browser/webview client)
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	// Setup API routes
	api := router.Group("/api")
	{
		// Submission corpus routes
		api.GET("/submissions", apiHandler.ListSubmissions)
		api.GET("/submissions/:index/file", apiHandler.ServeSubmissionFile)

		// Grading session routes (cursor + quick-entry state)
		api.GET("/session", apiHandler.GetCurrent)
		api.POST("/session", apiHandler.SetCurrent)
		api.POST("/session/rescan", apiHandler.RescanSubmissions)

		// Record routes
		api.GET("/records", apiHandler.ListRecords)
		api.GET("/records/:studentId", apiHandler.GetRecord)
		api.POST("/records", apiHandler.UpsertRecord)

		// Quick-entry routes
		api.POST("/quickentry/key", apiHandler.QuickEntryKey)
		api.POST("/quickentry/reset", apiHandler.QuickEntryReset)
		api.POST("/quickentry/comment", apiHandler.SetComment)

		// Export route
		api.POST("/export", apiHandler.ExportGradebook)

		// Ping route
		api.GET("/ping", handlers.PingHandler)
	}

	// Start the server
	log.Printf("Starting grading server on %s", cfg.Server.Address)
	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// logStartupSummary reports what was found on disk so a grader notices
// immediately when a prior gradebook failed to load or the submissions
// folder is empty.
func logStartupSummary(cfg *config.Config, store *db.CSVStore, h *handlers.APIHandler) {
	log.Printf("Loaded %d grading record(s) from %s", store.Count(), cfg.Paths.GradesCSV)

	n := h.SubmissionCount()
	if n == 0 {
		log.Printf("No PDF submissions found in %s; use POST /api/submissions/rescan after pointing at a folder", cfg.Paths.SubmissionsDir)
		return
	}
	log.Printf("Found %d PDF submission(s) in %s", n, cfg.Paths.SubmissionsDir)
}
