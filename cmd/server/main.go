package main // rental API server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/config"
	"github.com/iliyamo/car-rental-reservation/internal/database"
	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/handler"
	"github.com/iliyamo/car-rental-reservation/internal/middleware"
	"github.com/iliyamo/car-rental-reservation/internal/queue"
	"github.com/iliyamo/car-rental-reservation/internal/repository"
	"github.com/iliyamo/car-rental-reservation/internal/router"
	"github.com/iliyamo/car-rental-reservation/internal/service"
	"github.com/iliyamo/car-rental-reservation/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	}

	redisCfg := config.LoadRedisConfig()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	draftCfg := config.LoadDraftConfig()

	rdb, err := config.NewRedisClient(redisCfg, redisCfg.DB)
	if err != nil {
		logger.Warn("redis unavailable: cache, rate limit and hosted drafts fall back to process memory",
			zap.String("addr", redisCfg.Addr), zap.Error(err))
	} else {
		defer rdb.Close()
	}
	draftRDB := rdb
	if rdb != nil && draftCfg.SeparateDB(redisCfg.DB) {
		if draftRDB, err = config.NewRedisClient(redisCfg, draftCfg.RedisDB); err != nil {
			logger.Warn("draft redis database unavailable, hosted drafts fall back to process memory",
				zap.Int("db", draftCfg.RedisDB), zap.Error(err))
		} else {
			defer draftRDB.Close()
		}
	}
	brokerCfg := config.LoadBrokerConfig()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	locations := repository.NewLocationRepo(db)
	extras := repository.NewExtraRepo(db)
	coupons := repository.NewCouponRepo(db)
	bookings := repository.NewBookingRepo(db)

	resolver := &handler.Resolver{Vehicles: vehicles, Locations: locations, Extras: extras, Coupons: coupons}
	publisher := service.NewPublisher(brokerCfg, logger.Named("publisher"))

	var (
		memMu    sync.Mutex
		memSlots = map[uint64]*draft.MemorySlot{}
	)
	slots := func(uid uint64) draft.Slot {
		if draftRDB != nil {
			return storage.NewRedisSlot(draftRDB, draftCfg.KeyPrefix, uid, draftCfg.TTL)
		}
		memMu.Lock()
		defer memMu.Unlock()
		s, ok := memSlots[uid]
		if !ok {
			s = draft.NewMemorySlot()
			memSlots[uid] = s
		}
		return s
	}

	admin := &handler.AdminHandler{
		Vehicles:  vehicles,
		Locations: locations,
		Extras:    extras,
		Coupons:   coupons,
		Bookings:  bookings,
		Log:       logger.Named("admin"),
		Purge: func(ctx context.Context) {
			if n, err := middleware.PurgeCache(ctx, cacheCfg, rdb); err != nil {
				logger.Warn("catalog cache purge failed", zap.Error(err))
			} else if n > 0 {
				logger.Debug("catalog cache purged", zap.Int("keys", n))
			}
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger.Named("http")))

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, logger.Named("auth")), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(vehicles, locations, extras, logger.Named("catalog")),
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterAdmin(e, admin, cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(bookings, resolver, publisher, logger.Named("booking")), cfg.JWTSecret)
	router.RegisterCoupons(e, handler.NewCouponHandler(coupons, logger.Named("coupon")), cfg.JWTSecret,
		middleware.NewTokenBucket(rlCfg, rdb, logger.Named("ratelimit")))
	router.RegisterDraft(e, handler.NewDraftHandler(slots, resolver, coupons, logger.Named("draft")), cfg.JWTSecret)

	go func() {
		err := queue.StartReservationConsumer(ctx, brokerCfg, logger.Named("consumer"))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reservation consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
