package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civicfix/internal/complaint/models"
	"civicfix/pkg/platform/sentinel"
)

// Postgres persists complaints in a single table, with the verification
// list stored as a JSONB column. One row per aggregate keeps the
// read-modify-write cycle a single SELECT FOR UPDATE.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

const complaintColumns = `
	id, owner_id, title, description, category, evidence_url,
	latitude, longitude, address,
	status, resolution_details, resolved_at,
	verification_status, verification_count, rejection_count, verifications,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.Complaint) error {
	verifications, err := json.Marshal(c.Verifications)
	if err != nil {
		return fmt.Errorf("marshal verifications: %w", err)
	}
	query := `
		INSERT INTO complaints (` + complaintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Title, c.Description, c.Category, c.EvidenceURL,
		c.Location.Latitude, c.Location.Longitude, c.Location.Address,
		string(c.Status), nullString(c.ResolutionDetails), c.ResolvedAt,
		string(c.VerificationStatus), c.VerificationCount, c.RejectionCount, verifications,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	return scanComplaint(row)
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Complaint, error) {
	return s.list(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.Complaint, error) {
	return s.list(ctx,
		`SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC`)
}

// Update loads the row FOR UPDATE, applies mutate, and writes the result
// back in the same transaction. A mutator error rolls everything back;
// concurrent updates to the same complaint serialize on the row lock and
// each mutator sees the committed state of its predecessor.
func (s *Postgres) Update(ctx context.Context, id uuid.UUID, mutate func(*models.Complaint) error) (*models.Complaint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, id)
	c, err := scanComplaint(row)
	if err != nil {
		return nil, err
	}

	if err := mutate(c); err != nil {
		return nil, err
	}

	verifications, err := json.Marshal(c.Verifications)
	if err != nil {
		return nil, fmt.Errorf("marshal verifications: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE complaints SET
			status = $2, resolution_details = $3, resolved_at = $4,
			verification_status = $5, verification_count = $6, rejection_count = $7,
			verifications = $8, updated_at = $9
		WHERE id = $1
	`,
		c.ID, string(c.Status), nullString(c.ResolutionDetails), c.ResolvedAt,
		string(c.VerificationStatus), c.VerificationCount, c.RejectionCount,
		verifications, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return c, nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		c                 models.Complaint
		status            string
		verStatus         string
		resolutionDetails sql.NullString
		resolvedAt        sql.NullTime
		verifications     []byte
	)
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Category, &c.EvidenceURL,
		&c.Location.Latitude, &c.Location.Longitude, &c.Location.Address,
		&status, &resolutionDetails, &resolvedAt,
		&verStatus, &c.VerificationCount, &c.RejectionCount, &verifications,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan complaint: %w", err)
	}

	c.Status = models.Status(status)
	c.VerificationStatus = models.VerificationStatus(verStatus)
	c.ResolutionDetails = resolutionDetails.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	if err := json.Unmarshal(verifications, &c.Verifications); err != nil {
		return nil, fmt.Errorf("unmarshal verifications: %w", err)
	}
	if c.Verifications == nil {
		c.Verifications = []models.Verification{}
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
