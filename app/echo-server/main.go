package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techshop/app/echo-server/router"
	"techshop/business/account"
	"techshop/business/cart"
	"techshop/business/category"
	"techshop/business/message"
	"techshop/business/orders"
	"techshop/business/payments"
	"techshop/business/product"
	"techshop/business/review"
	"techshop/internal/repository/media"
	"techshop/internal/repository/notification"
	"techshop/internal/repository/postgres"
	redisrepo "techshop/internal/repository/redis"
	"techshop/internal/repository/vnpay"
	"techshop/internal/rest"
	"techshop/pkg/config"
	"techshop/pkg/database"
	redisdb "techshop/pkg/database/redis"
	"techshop/pkg/logger"
	"techshop/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("starting", "app", cfg.App.Name, "version", cfg.App.Version, "env", cfg.App.Environment)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres", err)
	}

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	gateway, err := vnpay.NewClient(vnpay.Config{
		TmnCode:     cfg.Vnpay.TmnCode,
		HashSecret:  cfg.Vnpay.HashSecret,
		CallbackUrl: cfg.Vnpay.CallbackUrl,
		BaseUrl:     cfg.Vnpay.BaseUrl,
	})
	if err != nil {
		logger.Fatal("payment gateway misconfigured", err)
	}

	metrics.Init()

	// Repositories.
	accountRepo := postgres.NewAccountRepository(db)
	productRepo := postgres.NewProductRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	cartRepo := postgres.NewCartRepository(db)
	ordersRepo := postgres.NewOrdersRepository(db)
	paymentsRepo := postgres.NewPaymentsRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	tokenRepo := redisrepo.NewTokenRepository(redisClient)
	mailer := notification.NewMailjetRepository(notification.MailjetConfig{
		MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
		MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
		MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
		MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
		MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
	})
	uploader := media.NewCloudinaryRepository(media.CloudinaryConfig{
		CloudName:    cfg.Cloudinary.CloudName,
		ApiKey:       cfg.Cloudinary.ApiKey,
		ApiSecret:    cfg.Cloudinary.ApiSecret,
		UploadFolder: cfg.Cloudinary.UploadFolder,
	})

	// Services.
	accountService := account.NewAccountService(accountRepo, tokenRepo, mailer, uploader)
	productService := product.NewProductService(productRepo, categoryRepo, uploader)
	categoryService := category.NewCategoryService(categoryRepo)
	cartService := cart.NewCartService(cartRepo, productRepo)
	ordersService := orders.NewOrdersService(ordersRepo, accountRepo, cartRepo, gateway)
	paymentsService := payments.NewPaymentsService(paymentsRepo, ordersRepo, gateway)
	reviewService := review.NewReviewService(reviewRepo, productRepo)
	messageService := message.NewMessageService(messageRepo, accountRepo, cfg.App.SupportID)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(50))))

	router.Register(e, router.Handlers{
		Account:  rest.NewAccountHandler(accountService),
		Product:  rest.NewProductHandler(productService),
		Category: rest.NewCategoryHandler(categoryService),
		Cart:     rest.NewCartHandler(cartService),
		Orders:   rest.NewOrdersHandler(ordersService),
		Payments: rest.NewPaymentsHandler(paymentsService),
		Review:   rest.NewReviewHandler(reviewService),
		Message:  rest.NewMessageHandler(messageService),
	}, tokenRepo)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}
