package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type PolicyRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db, now: time.Now}
}

func (r *PolicyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	metaJSON, err := json.Marshal(policy.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	docJSON, err := json.Marshal(policy.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO policies (
	id, user_id, name, category, metadata, document, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		policy.ID, policy.UserID, policy.Metadata.Name, string(policy.Metadata.Category), metaJSON, docJSON,
		string(policy.Status), policy.Error, policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (r *PolicyRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, metadata, document, status, error_message, extracted_text, extraction, created_at, updated_at
FROM policies
WHERE id = $1
`, id)

	var (
		policy        domain.Policy
		userID        sql.NullString
		metaRaw       []byte
		docRaw        []byte
		status        string
		extractionRaw []byte
	)
	err := row.Scan(
		&policy.ID, &userID, &metaRaw, &docRaw, &status, &policy.Error,
		&policy.ExtractedText, &extractionRaw, &policy.CreatedAt, &policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPolicyNotFound, "get policy", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}

	if err := json.Unmarshal(metaRaw, &policy.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(docRaw, &policy.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if len(extractionRaw) > 0 {
		var result domain.ExtractionResult
		if err := json.Unmarshal(extractionRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal extraction: %w", err)
		}
		policy.Extraction = &result
	}
	policy.UserID = userID.String
	policy.Status = domain.ExtractionStatus(status)
	return &policy, nil
}

func (r *PolicyRepository) UpdateStatus(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE policies
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, r.now().UTC())
	if err != nil {
		return fmt.Errorf("update policy status: %w", err)
	}
	return ensureAffected(res, "update policy status", id)
}

// SaveExtraction stores the extracted text next to the extraction blob.
func (r *PolicyRepository) SaveExtraction(ctx context.Context, id, text string, result domain.ExtractionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE policies
SET extracted_text = $2, extraction = $3, updated_at = $4
WHERE id = $1
`, id, text, resultJSON, r.now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return ensureAffected(res, "save extraction", id)
}

func ensureAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrPolicyNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}
