package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pragyanetra/console/internal/logging"
)

// Store errors
var (
	ErrProviderNotFound   = errors.New("provider not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWalletAlreadyBound = errors.New("wallet address already bound")
	ErrCourseNotFound     = errors.New("course not found")
)

// Store persists the two logical collections: providers keyed by chosen
// username, and courses keyed by a generated id with a provider_id field for
// ownership queries.
type Store struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// New creates a store over the given connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{
		db:  db,
		log: logging.NewLogger("store"),
	}
}
