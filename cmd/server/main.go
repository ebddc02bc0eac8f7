package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/config"
	"github.com/iliyamo/careers-portal/internal/database"
	"github.com/iliyamo/careers-portal/internal/handler"
	"github.com/iliyamo/careers-portal/internal/logging"
	"github.com/iliyamo/careers-portal/internal/middleware"
	"github.com/iliyamo/careers-portal/internal/queue"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/router"
	"github.com/iliyamo/careers-portal/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "text")
		bootLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	jobs := repository.NewJobRepo(db)
	industries := repository.NewIndustryRepo(db)
	apps := repository.NewApplicationRepo(db)
	saved := repository.NewSavedJobRepo(db)

	if cfg.AdminEmail != "" {
		id, err := users.EnsureSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFirstName, cfg.AdminLastName, cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("bootstrap super admin")
		}
		log.Info().Uint64("user_id", id).Str("email", cfg.AdminEmail).Msg("super admin ready")
	}

	// Redis is optional: without it the cache and rate limiter pass through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	rl := config.LoadRateLimitConfig()
	limits := router.Limits{
		General: middleware.NewTokenBucket(rl, rdb, log),
		Strict:  middleware.NewTokenBucket(rl.Strict(), rdb, log),
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	pub := queue.NewPublisher(cfg.AMQPURL, cfg.EmailQueue, log)
	defer pub.Close()
	go queue.StartConsumer(ctx, cfg.AMQPURL, cfg.EmailQueue,
		queue.MailHandler(newMailer(cfg.Mail, log), cfg.PublicBaseURL, log), log)

	jobSvc := service.NewJobService(jobs, cache, log)
	industrySvc := service.NewIndustryService(industries, cache, log)
	appSvc := service.NewApplicationService(apps, jobs, pub, log)
	userSvc := service.NewUserAdminService(users, tokens, pub, cfg.InviteTTL, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret, limits)
	router.RegisterPublic(e, handler.NewPublicHandler(jobSvc, appSvc, industrySvc), cache, cfg.JWTSecret, limits)
	router.RegisterCandidate(e, handler.NewCandidateHandler(saved, jobSvc, appSvc), cfg.JWTSecret, limits)
	router.RegisterAdmin(e, handler.NewAdminHandler(jobSvc, industrySvc, appSvc, userSvc), cfg.JWTSecret, limits)

	go purgeExpiredTokens(ctx, tokens, log)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	// Let in-flight status notifications reach the broker.
	appSvc.Wait()
}

func newMailer(mc config.MailConfig, log zerolog.Logger) queue.Mailer {
	if mc.SMTPHost == "" {
		log.Info().Str("path", mc.LogPath).Msg("SMTP not configured; writing notifications to file")
		return &queue.FileMailer{Path: mc.LogPath}
	}
	return queue.SMTPMailer{
		Host:     mc.SMTPHost,
		Port:     mc.SMTPPort,
		Username: mc.Username,
		Password: mc.Password,
		From:     mc.From,
	}
}

// purgeExpiredTokens drops expired refresh tokens once an hour.
func purgeExpiredTokens(ctx context.Context, tokens *repository.TokenRepo, log zerolog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge refresh tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("purged expired refresh tokens")
			}
		}
	}
}
