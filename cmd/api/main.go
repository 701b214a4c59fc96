package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/escola-hub/escola-admin-api/api/swagger"
	"github.com/escola-hub/escola-admin-api/internal/handler"
	"github.com/escola-hub/escola-admin-api/internal/middleware"
	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/repository"
	"github.com/escola-hub/escola-admin-api/internal/service"
	"github.com/escola-hub/escola-admin-api/pkg/cache"
	"github.com/escola-hub/escola-admin-api/pkg/config"
	"github.com/escola-hub/escola-admin-api/pkg/database"
	"github.com/escola-hub/escola-admin-api/pkg/jobs"
	"github.com/escola-hub/escola-admin-api/pkg/logger"
	corsmiddleware "github.com/escola-hub/escola-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/escola-hub/escola-admin-api/pkg/middleware/requestid"
	"github.com/escola-hub/escola-admin-api/pkg/storage"
)

// @title Escola Admin API
// @version 0.1.0
// @description School administration backend: matrículas, financeiro, chamadas e resumos
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			logr.Warn("failed to init sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, true)
		}
	}

	uploadsStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to init uploads storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	escolaRepo := repository.NewEscolaRepository(db)
	cursoRepo := repository.NewCursoRepository(db)
	turmaRepo := repository.NewTurmaRepository(db)
	matriculaRepo := repository.NewMatriculaRepository(db)
	parcelaRepo := repository.NewParcelaRepository(db)
	chamadaRepo := repository.NewChamadaRepository(db)
	resumoRepo := repository.NewResumoRepository(db)
	arquivoRepo := repository.NewArquivoRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "escola-admin-api",
		SingleSession:      true,
	})
	userService := service.NewUserService(userRepo, cacheService, nil, logr)
	escolaService := service.NewEscolaService(escolaRepo, cacheService, nil, logr)
	cursoService := service.NewCursoService(cursoRepo, cacheService, nil, logr)
	turmaService := service.NewTurmaService(turmaRepo, cursoRepo, userRepo, cacheService, nil, logr)
	matriculaService := service.NewMatriculaService(matriculaRepo, parcelaRepo, userRepo, cursoRepo, turmaRepo, cacheService, nil, logr)
	financeiroService := service.NewFinanceiroService(parcelaRepo, cacheService, logr)
	chamadaService := service.NewChamadaService(chamadaRepo, turmaRepo, nil, logr)
	resumoService := service.NewResumoService(resumoRepo, turmaRepo, nil, logr)
	arquivoService := service.NewArquivoService(arquivoRepo, uploadsStorage, service.ArquivoConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportsStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init exports storage", zap.Error(err))
		}
		exportRepo := repository.NewExportRepository(db)
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService = service.NewExportService(exportRepo, parcelaRepo, exportsStorage, signer, service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		}, logr)

		exportQueue := jobs.NewQueue("ledger-export", exportService.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportService.AttachQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		exportService.RecoverPendingJobs(ctx)
		go exportService.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	escolaHandler := handler.NewEscolaHandler(escolaService)
	cursoHandler := handler.NewCursoHandler(cursoService)
	turmaHandler := handler.NewTurmaHandler(turmaService)
	matriculaHandler := handler.NewMatriculaHandler(matriculaService)
	financeiroHandler := handler.NewFinanceiroHandler(financeiroService, exportService)
	chamadaHandler := handler.NewChamadaHandler(chamadaService)
	resumoHandler := handler.NewResumoHandler(resumoService, uploadsStorage)
	arquivoHandler := handler.NewArquivoHandler(arquivoService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, authService, routeHandlers{
		auth:       authHandler,
		users:      userHandler,
		escolas:    escolaHandler,
		cursos:     cursoHandler,
		turmas:     turmaHandler,
		matriculas: matriculaHandler,
		financeiro: financeiroHandler,
		chamadas:   chamadaHandler,
		resumos:    resumoHandler,
		arquivos:   arquivoHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	escolas    *handler.EscolaHandler
	cursos     *handler.CursoHandler
	turmas     *handler.TurmaHandler
	matriculas *handler.MatriculaHandler
	financeiro *handler.FinanceiroHandler
	chamadas   *handler.ChamadaHandler
	resumos    *handler.ResumoHandler
	arquivos   *handler.ArquivoHandler
}

func registerRoutes(r *gin.Engine, authService *service.AuthService, h routeHandlers) {
	staff := middleware.Staff()
	staffOnly := middleware.RequireTypes(staff...)
	staffOrTeacher := middleware.RequireTypes(append(staff, models.UserTypeProfessor)...)
	anyAuthenticated := middleware.RequireTypes(
		models.UserTypeGestor, models.UserTypeDiretor, models.UserTypeSecretaria,
		models.UserTypeProfessor, models.UserTypeAluno,
	)

	auth := r.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
		auth.POST("/logout", middleware.JWT(authService), h.auth.Logout)
		auth.PUT("/senha", middleware.JWT(authService), h.auth.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), h.auth.Me)
	}

	api := r.Group("/", middleware.JWT(authService))

	users := api.Group("/users")
	{
		users.GET("", staffOnly, h.users.List)
		users.POST("", staffOnly, h.users.Create)
		users.GET("/:id", middleware.RequireTypes(append(staff, middleware.SelfAccess)...), h.users.Get)
		users.PUT("/:id", middleware.RequireTypes(append(staff, middleware.SelfAccess)...), h.users.Update)
		users.DELETE("/:id", staffOnly, h.users.Delete)
	}

	escolas := api.Group("/escolas")
	{
		escolas.GET("", staffOnly, h.escolas.List)
		escolas.POST("", middleware.RequireTypes(models.UserTypeGestor), h.escolas.Create)
		escolas.GET("/:id", staffOnly, h.escolas.Get)
		escolas.PUT("/:id", middleware.RequireTypes(models.UserTypeGestor), h.escolas.Update)
		escolas.DELETE("/:id", middleware.RequireTypes(models.UserTypeGestor), h.escolas.Delete)
	}

	cursos := api.Group("/cursos")
	{
		cursos.GET("", anyAuthenticated, h.cursos.List)
		cursos.POST("", staffOnly, h.cursos.Create)
		cursos.GET("/:id", anyAuthenticated, h.cursos.Get)
		cursos.PUT("/:id", staffOnly, h.cursos.Update)
		cursos.DELETE("/:id", staffOnly, h.cursos.Delete)
	}

	turmas := api.Group("/turmas")
	{
		turmas.GET("", staffOrTeacher, h.turmas.List)
		turmas.POST("", staffOnly, h.turmas.Create)
		turmas.GET("/:id", staffOrTeacher, h.turmas.Get)
		turmas.PUT("/:id", staffOnly, h.turmas.Update)
		turmas.DELETE("/:id", staffOnly, h.turmas.Delete)
	}

	matriculas := api.Group("/matriculas", staffOnly)
	{
		matriculas.GET("", h.matriculas.List)
		matriculas.POST("", h.matriculas.Create)
		matriculas.GET("/novo/aluno/:id", h.matriculas.Draft)
		matriculas.GET("/:id", h.matriculas.Get)
		matriculas.PUT("/:id", h.matriculas.Update)
		matriculas.PUT("/:id/status", h.matriculas.UpdateStatus)
	}

	api.GET("/financeiroParcelas", staffOnly, h.financeiro.Ledger)
	api.PUT("/update-status/:parcelaId", staffOnly, h.financeiro.UpdateStatus)
	api.POST("/financeiro/export", staffOnly, h.financeiro.CreateExport)
	api.GET("/financeiro/export/:id", staffOnly, h.financeiro.ExportStatus)
	// Download is authenticated by the signed token itself.
	r.GET("/financeiroParcelas/export/:token", h.financeiro.DownloadExport)

	chamadas := api.Group("/chamadas", staffOrTeacher)
	{
		chamadas.POST("", h.chamadas.Create)
		chamadas.GET("/turma/:turmaId", h.chamadas.ListByTurma)
		chamadas.PUT("/:id", h.chamadas.Update)
		chamadas.DELETE("/:id", h.chamadas.Delete)
	}

	resumos := api.Group("/resumos")
	{
		resumos.GET("/:turmaId", anyAuthenticated, h.resumos.ListByTurma)
		resumos.POST("", staffOrTeacher, h.resumos.Create)
		resumos.PUT("/:id", staffOrTeacher, h.resumos.Update)
		resumos.DELETE("/:id", staffOrTeacher, h.resumos.Delete)
	}

	audios := api.Group("/audios")
	{
		audios.GET("", anyAuthenticated, h.arquivos.ListAudios)
		audios.POST("", staffOrTeacher, h.arquivos.UploadAudio)
		audios.GET("/:id/download", anyAuthenticated, h.arquivos.DownloadAudio)
		audios.DELETE("/:id", staffOrTeacher, h.arquivos.DeleteAudio)
	}

	materiais := api.Group("/materiais")
	{
		materiais.GET("", anyAuthenticated, h.arquivos.ListMateriais)
		materiais.POST("", staffOrTeacher, h.arquivos.UploadMaterial)
		materiais.GET("/:id/download", anyAuthenticated, h.arquivos.DownloadMaterial)
		materiais.DELETE("/:id", staffOrTeacher, h.arquivos.DeleteMaterial)
	}
}
