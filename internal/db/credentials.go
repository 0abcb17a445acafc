package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/aichat/internal/models"
)

const selectCredentialColumns = `
	SELECT id, api_key_hash, pin_code, created_at
	FROM api_keys
`

// IssueCredential stores hash with pin unless hash is already registered or
// pin is held by another record, then reads back the record for hash.
//
// The insert is a single statement that resolves a duplicate hash through the
// unique constraint, so two workers registering the same secret at once both
// end up with the one stored record. created reports whether this call wrote
// it. A nil record means pin was taken and nothing was stored.
func (qs queries) IssueCredential(ctx context.Context, hash, pin string, createdAt time.Time) (cred *models.Credential, created bool, err error) {
	insert := `
		INSERT INTO api_keys (api_key_hash, pin_code, created_at)
		SELECT ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM api_keys WHERE pin_code = ?)
		ON CONFLICT(api_key_hash) DO NOTHING
	`

	err = qs.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, insert, hash, pin, formatTime(createdAt), pin)
		if err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
		created = n > 0

		cred, err = scanCredential(tx.QueryRowContext(ctx, selectCredentialColumns+`WHERE api_key_hash = ?`, hash))
		if errors.Is(err, sql.ErrNoRows) {
			cred, err = nil, nil
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return cred, created, nil
}

// GetCredentialByHash returns the record for hash, or nil if there is none.
func (qs queries) GetCredentialByHash(ctx context.Context, hash string) (*models.Credential, error) {
	cred, err := scanCredential(qs.q.QueryRowContext(ctx, selectCredentialColumns+`WHERE api_key_hash = ?`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cred, err
}

// GetCredentialsByPin returns every record holding pin, oldest first.
func (qs queries) GetCredentialsByPin(ctx context.Context, pin string) ([]models.Credential, error) {
	rows, err := qs.q.QueryContext(ctx, selectCredentialColumns+`WHERE pin_code = ? ORDER BY id ASC`, pin)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var creds []models.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}
	return creds, rows.Err()
}

// PinExists reports whether any record holds pin.
func (qs queries) PinExists(ctx context.Context, pin string) (bool, error) {
	var exists bool
	err := qs.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM api_keys WHERE pin_code = ?)`, pin).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up pin: %w", err)
	}
	return exists, nil
}

// DeleteCredentialsByPin removes every record holding pin and reports how
// many were removed.
func (qs queries) DeleteCredentialsByPin(ctx context.Context, pin string) (int64, error) {
	var n int64
	err := qs.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM api_keys WHERE pin_code = ?", pin)
		if err != nil {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}
		n, _ = result.RowsAffected()
		return nil
	})
	return n, err
}

// CountCredentials returns the number of registered secrets.
func (qs queries) CountCredentials(ctx context.Context) (int, error) {
	var n int
	if err := qs.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count credentials: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		cred      models.Credential
		hash, pin sql.NullString
		createdAt sqlTime
	)
	err := row.Scan(&cred.ID, &hash, &pin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}
	cred.APIKeyHash = hash.String
	cred.PinCode = pin.String
	cred.CreatedAt = createdAt.Time
	return &cred, nil
}
