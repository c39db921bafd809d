package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"lightkart/internal/model"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			selling_price BIGINT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			is_sold BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS carts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price_at_time BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS coupons (
			id UUID PRIMARY KEY,
			code VARCHAR(50) NOT NULL UNIQUE,
			discount INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			distributed_quantity INTEGER NOT NULL DEFAULT 0,
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			status VARCHAR(20) NOT NULL,
			shipping_method VARCHAR(50) NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			desired_date VARCHAR(10) NOT NULL DEFAULT '',
			coupon_id UUID REFERENCES coupons(id),
			amount BIGINT NOT NULL,
			merchant_order_no VARCHAR(30) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			canceled_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS order_items (
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			user_id UUID NOT NULL REFERENCES users(id),
			transaction_id VARCHAR(50) NOT NULL,
			status VARCHAR(30) NOT NULL,
			paid_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_orders_merchant_order_no ON orders(merchant_order_no);
		CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedUser inserts a test user and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO users (id, name, email) VALUES ($1, $2, $3)",
		userID, "Test User", "user@example.com")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return userID
}

// SeedProduct inserts an available product and returns its id.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, price int64) uuid.UUID {
	t.Helper()

	productID := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO products (id, name, selling_price) VALUES ($1, $2, $3)",
		productID, name, price)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return productID
}

// SeedCoupon inserts a coupon with the given remaining quantity and
// returns its id.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, code string, discount, quantity int) uuid.UUID {
	t.Helper()

	couponID := uuid.New()
	now := time.Now()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO coupons (id, code, discount, quantity, distributed_quantity, start_at, end_at, is_available)
		VALUES ($1, $2, $3, $4, 0, $5, $6, TRUE)
	`, couponID, code, discount, quantity, now.Add(-time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", code, err)
	}
	return couponID
}

// SeedOrder inserts an order row directly and returns its id.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, status model.OrderStatus, couponID *uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()

	orderID := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO orders (id, user_id, status, shipping_method, payment_method, coupon_id, amount, merchant_order_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, orderID, userID, status, model.ShippingMethodHomeDelivery, model.PaymentMethodCreditCard,
		couponID, int64(1060), fmt.Sprintf("%d", createdAt.Unix()), createdAt)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return orderID
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"payments", "order_items", "orders", "carts", "coupons", "products", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
