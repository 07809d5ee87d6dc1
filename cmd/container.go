// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, mail delivery) and
// composes bounded-context containers. This is the only place that knows
// about ALL modules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Abraxas-365/tenantry/pkg/config"
	"github.com/Abraxas-365/tenantry/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/tenantry/pkg/iam/mail"
	"github.com/Abraxas-365/tenantry/pkg/jobx"
	"github.com/Abraxas-365/tenantry/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/Abraxas-365/tenantry/pkg/notifx"
	"github.com/Abraxas-365/tenantry/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/tenantry/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB       *sqlx.DB
	Redis    *redis.Client
	Jobs     *jobx.Client
	Notifier *notifx.Client

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initMail()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Config.Database.Host,
		c.Config.Database.Port,
		c.Config.Database.User,
		c.Config.Database.Password,
		c.Config.Database.Name,
		c.Config.Database.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis — required: sessions, handoff tokens and the job queue live here
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	logx.Info("✅ Infrastructure initialized")
}

// ---------------------------------------------------------------------------
// Mail — provider selection, job queue, worker
// ---------------------------------------------------------------------------

func (c *Container) initMail() {
	var provider notifx.EmailSender

	switch c.Config.Notifx.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider = notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notifx.FromAddress)
		logx.Infof("  ✅ SES email provider configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console":
		provider = notifxconsole.NewConsoleProvider()
		logx.Info("  ✅ Console email provider configured (dev mode)")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notifx.Provider)
	}

	c.Notifier = notifx.NewClient(provider)

	c.Jobs = jobx.NewClient(jobxredis.NewRedisQueue(c.Redis),
		jobx.WithQueues(c.Config.Jobx.Queues...),
		jobx.WithConcurrency(c.Config.Jobx.Concurrency),
		jobx.WithPollInterval(c.Config.Jobx.PollInterval),
		jobx.WithShutdownTimeout(c.Config.Jobx.ShutdownTimeout),
		jobx.WithDequeueTimeout(c.Config.Jobx.DequeueTimeout),
		jobx.WithDefaultRetryDelay(c.Config.Jobx.DefaultRetryDelay),
	)

	from := fmt.Sprintf("%s <%s>", c.Config.Notifx.FromName, c.Config.Notifx.FromAddress)
	worker, err := mail.NewWorker(c.Notifier, from)
	if err != nil {
		logx.Fatalf("Failed to initialize mail worker: %v", err)
	}
	worker.Register(c.Jobs)

	logx.Info("  ✅ Mail queue and worker configured")
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:     c.DB,
		Redis:  c.Redis,
		Cfg:    c.Config,
		Mailer: mail.NewQueueMailer(c.Jobs),
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices starts the job workers. They stop when ctx is
// cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.Errorf("Job worker stopped: %v", err)
		}
	}()
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
