package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SymoHTL/CloudCord/internal/config"
	"github.com/SymoHTL/CloudCord/internal/domain"
	"github.com/SymoHTL/CloudCord/internal/infra/backend/discord"
	redisx "github.com/SymoHTL/CloudCord/internal/infra/cache/redis"
	"github.com/SymoHTL/CloudCord/internal/infra/database/postgres"
	"github.com/SymoHTL/CloudCord/internal/store"
	"github.com/SymoHTL/CloudCord/internal/transport/web"
)

type App struct {
	config *config.Config
	server *web.Server
	log    *log.Logger
	pool   *discord.Pool
	cache  domain.Cache
	repo   domain.SegmentsRepo
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	dcLog := log.New(base.Writer(), base.Prefix()+"[discord] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
	storeLog := log.New(base.Writer(), base.Prefix()+"[store] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	// каталог ключевого материала (секреты приложения на диске)
	if cfg.KeyDir != "" {
		if err := os.MkdirAll(cfg.KeyDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed init key dir: %w", err)
		}
	}

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	base.Println("init Discord session pool")
	pool := discord.New(discord.Config{
		Tokens:    cfg.Tokens(),
		GuildID:   cfg.DCGuildID,
		ChannelID: cfg.DCChannelID,
	}, dcLog)
	// без залогиненных сессий сервис трафик не обслуживает — ошибка фатальна
	if err := pool.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed init discord pool: %w", err)
	}
	base.Println("Discord session pool is initialized")

	base.Println("init Server")
	engine := store.New(storeLog, pgRepo, pool, rc, cfg.MaxSegmentSize)
	server := web.New(serverLog, cfg, web.Deps{
		DB:      pgRepo,
		Cache:   rc,
		Backend: pool,
		Engine:  engine,
	})
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config: cfg,
		server: server,
		log:    base,
		pool:   pool,
		repo:   pgRepo,
		cache:  rc}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.pool.Close()
	a.repo.Close()
	a.cache.Close()

	return nil
}
