package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quota-service/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store is the transaction service owning every multi-row invariant:
// quota aggregates, the single-accepted-bid rule, participant uniqueness.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection (tests use sqlmock here)
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies pending schema migrations from dir.
func (s *Store) Migrate(dir string) error {
	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on a specific constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// CreateProfile inserts a new profile. Duplicate email or tax id surfaces
// as a CONFLICT domain error, never as constraint message text.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, password_hash, full_name, type, tax_id, phone, address, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		profile.ID, profile.Email, profile.PasswordHash, profile.FullName, profile.Type,
		profile.TaxID, profile.Phone, profile.Address, profile.City, profile.State,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "profiles_email_key") {
			return models.ErrDuplicateEmail
		}
		if isUniqueViolation(err, "profiles_tax_id_key") {
			return models.ErrDuplicateTaxID
		}
		return err
	}
	return nil
}

// GetProfileByID retrieves a profile by ID
func (s *Store) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, "SELECT * FROM profiles WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByEmail retrieves a profile by email
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, "SELECT * FROM profiles WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the mutable contact fields of a profile
func (s *Store) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = $1, phone = $2, address = $3, city = $4, state = $5, updated_at = NOW()
		WHERE id = $6`,
		profile.FullName, profile.Phone, profile.Address, profile.City, profile.State, profile.ID)
	return err
}

// GetProducts retrieves the product catalog ordered by name
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY name")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewError(models.ErrCodeNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
