package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/xflow/configs"
	"github.com/maheshrc27/xflow/internal/api/handlers"
	"github.com/maheshrc27/xflow/internal/api/middleware"
	job "github.com/maheshrc27/xflow/internal/jobs"
	"github.com/maheshrc27/xflow/internal/queue"
	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/schedule"
	"github.com/maheshrc27/xflow/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	authTokenRepo := repository.NewAuthTokenRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)

	xService := service.NewXApiService(*cfg)
	tokenService := service.NewTokenService(authTokenRepo, xService, cfg.EncryptionKey)
	authService := service.NewAuthService(userRepo, xService, tokenService)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, userRepo, suggestionRepo)
	pushService := service.NewPushService(*cfg, deviceTokenRepo)
	deviceService := service.NewDeviceService(deviceTokenRepo)

	slotFinder := schedule.NewSlotFinder(cfg.AutoSchedule, postRepo)
	suggestionService := service.NewSuggestionService(db, suggestionRepo, postRepo, userRepo, strategyRepo, slotFinder)

	notifier := queue.NewPushNotifier(client)
	publisherService := service.NewPublisherService(postRepo, tokenService, xService, notifier)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/thread", post.CreateThread)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/cancel", post.CancelSchedule)
	api.Post("/posts/remove", post.RemovePost)

	suggestion := handlers.NewSuggestionHandler(suggestionService)
	api.Get("/suggestions", suggestion.ListSuggestions)
	api.Post("/suggestions/accept", suggestion.AcceptSuggestion)
	api.Post("/suggestions/reject", suggestion.RejectSuggestion)

	device := handlers.NewDeviceHandler(deviceService)
	api.Post("/devices/register", device.RegisterDevice)
	api.Post("/devices/remove", device.RemoveDevice)

	// cron jobs
	runStore := job.NewRunStore()
	publishJob := job.NewPublishJob(publisherService, runStore)
	refreshTokenJob := job.NewTokenRefreshJob(authTokenRepo, tokenService)

	jobs := handlers.NewJobsHandler(runStore)
	api.Get("/jobs/publish/last", jobs.LastPublishRun)

	c := cron.New()
	c.AddFunc(cfg.SweepSpec, publishJob.Run)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		queueW := queue.NewWorker(pushService)
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeNotifyPublished, queueW.HandleNotifyPublished)
		mux.HandleFunc(queue.TaskTypeNotifyFailed, queueW.HandleNotifyFailed)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
