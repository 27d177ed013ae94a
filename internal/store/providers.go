package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pragyanetra/console/internal/models"
)

// CreateProvider inserts a new provider record. The chosen username is the
// key; a duplicate fails with ErrUsernameTaken.
func (s *Store) CreateProvider(ctx context.Context, p *models.Provider) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO providers (id, email, display_name, bio, linkedin, twitter, avatar_url, wallet_address, learn_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Email, p.DisplayName, p.Bio, p.LinkedIn, p.Twitter, p.AvatarURL, p.WalletAddress, p.LearnBalance)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// GetProvider retrieves a provider by username.
func (s *Store) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	err := s.db.QueryRow(ctx, `
		SELECT id, email, display_name, bio, linkedin, twitter, avatar_url, wallet_address, learn_balance, created_at
		FROM providers WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.Bio, &p.LinkedIn, &p.Twitter,
		&p.AvatarURL, &p.WalletAddress, &p.LearnBalance, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &p, nil
}

// GetProviderByEmail retrieves a provider by email address.
func (s *Store) GetProviderByEmail(ctx context.Context, email string) (*models.Provider, error) {
	var p models.Provider
	err := s.db.QueryRow(ctx, `
		SELECT id, email, display_name, bio, linkedin, twitter, avatar_url, wallet_address, learn_balance, created_at
		FROM providers WHERE email = $1
	`, email).Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.Bio, &p.LinkedIn, &p.Twitter,
		&p.AvatarURL, &p.WalletAddress, &p.LearnBalance, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider by email: %w", err)
	}
	return &p, nil
}

// UsernameAvailable reports whether a username is still free.
func (s *Store) UsernameAvailable(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM providers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !exists, nil
}

// BindWallet sets the provider's wallet address. The address is set at most
// once; a second bind fails with ErrWalletAlreadyBound.
func (s *Store) BindWallet(ctx context.Context, id, address string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE providers SET wallet_address = $1
		WHERE id = $2 AND wallet_address IS NULL
	`, address, id)
	if err != nil {
		return fmt.Errorf("failed to bind wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetProvider(ctx, id); err != nil {
			return err
		}
		return ErrWalletAlreadyBound
	}
	return nil
}

// CreditLearnBalance adds to the provider's learn balance and returns the new
// total.
func (s *Store) CreditLearnBalance(ctx context.Context, id string, amount int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
		UPDATE providers SET learn_balance = learn_balance + $1
		WHERE id = $2
		RETURNING learn_balance
	`, amount, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProviderNotFound
		}
		return 0, fmt.Errorf("failed to credit learn balance: %w", err)
	}
	return balance, nil
}
