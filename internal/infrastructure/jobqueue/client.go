package jobqueue

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// Config tunes the task queue.
type Config struct {
	// DatabasePath is the SQLite file backing the queue. Import state lives
	// in the main database; only queued tasks live here.
	DatabasePath string
	// Workers is the number of concurrent task processors
	Workers int
	// ReleaseAfter reclaims tasks whose worker died mid-processing
	ReleaseAfter time.Duration
	// CleanupInterval drives removal of expired completed tasks
	CleanupInterval time.Duration
}

// Client wraps the backlite task queue over a dedicated SQLite database.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	log    *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewClient opens the queue database and installs the task schema.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	db, err := sql.Open("sqlite3", cfg.DatabasePath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open task database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &queueLogger{log: log.Sugar()},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	return &Client{client: client, db: db, log: log}, nil
}

// Register adds queues to the client. Must run before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. Non-blocking; stop with Stop.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.log.Info("task queue started")
	c.client.Start(ctx)
}

// Stop drains active tasks until the context expires. Reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return true
	}
	done := c.client.Stop(ctx)
	if done {
		c.log.Info("task queue stopped")
	} else {
		c.log.Warn("task queue stopped with tasks still running")
	}
	return done
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an enqueue operation for one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// queueLogger adapts backlite's key-value logging onto zap.
type queueLogger struct {
	log *zap.SugaredLogger
}

func (l *queueLogger) Info(message string, params ...any) {
	l.log.Infow(message, params...)
}

func (l *queueLogger) Error(message string, params ...any) {
	l.log.Errorw(message, params...)
}
