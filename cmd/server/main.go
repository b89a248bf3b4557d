package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gendai-ordering/internal/auth"
	"gendai-ordering/internal/config"
	apphttp "gendai-ordering/internal/http"
	"gendai-ordering/internal/repository/sqlite"
	"gendai-ordering/internal/service"
	"gendai-ordering/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	menuRepo := sqlite.NewMenuItemRepository(db)
	orderRepo := sqlite.NewOrderRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := menuRepo.Init(ctx); err != nil {
		logger.Fatalf("init menu repository: %v", err)
	}
	if err := orderRepo.Init(ctx); err != nil {
		logger.Fatalf("init order repository: %v", err)
	}

	imageStore, imagesDir, err := buildImageStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup image storage: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authService := service.NewAuthService(userRepo, tokens)
	menuService := service.NewMenuService(menuRepo, imageStore)
	orderService := service.NewOrderService(orderRepo, menuRepo, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, menuService, orderService, logger, imagesDir)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildImageStore returns the configured image store and, for the local
// driver, the directory to serve under the public /images path.
func buildImageStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, string, error) {
	switch cfg.Images.Driver {
	case "", "local":
		store, err := storage.NewLocalService(cfg.Images.LocalDir, cfg.Images.PublicPath)
		if err != nil {
			return nil, "", err
		}
		logger.Infof("storing images in %s", cfg.Images.LocalDir)
		return store, store.Root(), nil

	case "s3":
		if cfg.Storage.Bucket == "" {
			return nil, "", fmt.Errorf("storage bucket is required")
		}

		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Storage.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, "", fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
				o.UsePathStyle = true
			}
		})

		baseURL := cfg.Storage.PublicURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Storage.Bucket, cfg.Storage.Region)
		}
		logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, baseURL), "", nil

	default:
		return nil, "", fmt.Errorf("unknown image driver %q", cfg.Images.Driver)
	}
}
