package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/handlers"
	"github.com/workshala/server/internal/middleware"
	"github.com/workshala/server/internal/queue"
	"github.com/workshala/server/internal/recommend"
	"github.com/workshala/server/internal/repository"
	"github.com/workshala/server/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	verifyRepo := repository.NewVerificationRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	otpRepo := repository.NewOTPRepository(redisClient, logger)
	jobRepo := repository.NewJobRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	companyRepo := repository.NewCompanyRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	profileRepo := repository.NewProfileRepository(dynamoClient, cfg.DynamoDB.TableName, logger)

	// Services
	tokenService, err := service.NewTokenService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token service")
	}
	otpService := service.NewOTPService(otpRepo, &cfg.OTP, logger)

	// Mail dispatch: asynq client plus an in-process worker.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	mailer := queue.NewAsynqMailer(redisOpt, logger)
	defer mailer.Close()

	worker := queue.NewWorker(redisOpt, cfg.Mail.Sender, logger)
	go func() {
		if err := worker.Run(); err != nil {
			logger.WithError(err).Fatal("Mail worker failed")
		}
	}()

	recommendClient := recommend.NewClient(cfg.Recommend.BaseURL,
		recommend.WithHTTPClient(&http.Client{Timeout: cfg.Recommend.Timeout}))

	authHandlers := handlers.NewAuthHandlers(
		userRepo,
		verifyRepo,
		otpService,
		tokenService,
		mailer,
		&cfg.Mail,
		logger,
	)

	portalHandlers := handlers.NewPortalHandlers(
		userRepo,
		profileRepo,
		jobRepo,
		companyRepo,
		recommendClient,
		logger,
	)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, logger)
	router := setupRouter(authHandlers, portalHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	worker.Shutdown()

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	portalHandlers *handlers.PortalHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", authHandlers.Signup).Methods("POST", "OPTIONS")
	auth.HandleFunc("/verify", authHandlers.VerifyEmail).Methods("GET", "OPTIONS")
	auth.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh-token", authHandlers.RefreshToken).Methods("POST", "OPTIONS")
	auth.HandleFunc("/forgot-password", authHandlers.ForgotPassword).Methods("POST", "OPTIONS")
	auth.HandleFunc("/verify-otp", authHandlers.VerifyOTP).Methods("POST", "OPTIONS")
	auth.HandleFunc("/change-password", authHandlers.ChangePassword).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/dashboard", portalHandlers.Dashboard).Methods("GET")
	protected.HandleFunc("/profile", portalHandlers.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", portalHandlers.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/jobs", portalHandlers.GetJobs).Methods("GET")
	protected.HandleFunc("/jobs/recommended", portalHandlers.GetRecommendedJobs).Methods("GET")
	protected.HandleFunc("/jobs/by-company", portalHandlers.GetJobsByCompany).Methods("POST")
	protected.HandleFunc("/companies", portalHandlers.GetCompanies).Methods("GET")

	return router
}
