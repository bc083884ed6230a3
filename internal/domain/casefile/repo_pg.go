package casefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavi/preauth/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository {
	return &caseRepoPG{pool: pool}
}

func (r *caseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const caseCols = `id, payload, version_id, created_at, updated_at`

// payload is the JSONB column content: the Case minus its identity and
// audit fields.
type payload struct {
	Patient          Patient        `json:"patient"`
	MedicalHistory   []string       `json:"medicalHistory"`
	CustomHistory    string         `json:"customHistory,omitempty"`
	Symptoms         []string       `json:"symptoms"`
	CustomSymptoms   string         `json:"customSymptoms,omitempty"`
	SymptomOnset     string         `json:"symptomOnset,omitempty"`
	ClinicalCourse   ClinicalCourse `json:"clinicalCourse"`
	Examinations     []Examination  `json:"examinations"`
	RiskAssessment   RiskAssessment `json:"riskAssessment"`
	FunctionalStatus string         `json:"functionalStatus,omitempty"`
	Prognosis        string         `json:"prognosis,omitempty"`
	GeneratedSummary string         `json:"generatedSummary,omitempty"`
	SignedDocument   Image          `json:"signedDocument,omitempty"`
}

func toPayload(c *Case) ([]byte, error) {
	return json.Marshal(payload{
		Patient:          c.Patient,
		MedicalHistory:   c.MedicalHistory,
		CustomHistory:    c.CustomHistory,
		Symptoms:         c.Symptoms,
		CustomSymptoms:   c.CustomSymptoms,
		SymptomOnset:     c.SymptomOnset,
		ClinicalCourse:   c.ClinicalCourse,
		Examinations:     c.Examinations,
		RiskAssessment:   c.RiskAssessment,
		FunctionalStatus: c.FunctionalStatus,
		Prognosis:        c.Prognosis,
		GeneratedSummary: c.GeneratedSummary,
		SignedDocument:   c.SignedDocument,
	})
}

func fromPayload(c *Case, raw []byte) error {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	c.Patient = p.Patient
	c.MedicalHistory = p.MedicalHistory
	c.CustomHistory = p.CustomHistory
	c.Symptoms = p.Symptoms
	c.CustomSymptoms = p.CustomSymptoms
	c.SymptomOnset = p.SymptomOnset
	c.ClinicalCourse = p.ClinicalCourse
	c.Examinations = p.Examinations
	c.RiskAssessment = p.RiskAssessment
	c.FunctionalStatus = p.FunctionalStatus
	c.Prognosis = p.Prognosis
	c.GeneratedSummary = p.GeneratedSummary
	c.SignedDocument = p.SignedDocument
	return nil
}

func (r *caseRepoPG) scanRow(row pgx.Row) (*Case, error) {
	var c Case
	var raw []byte
	if err := row.Scan(&c.ID, &raw, &c.VersionID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if err := fromPayload(&c, raw); err != nil {
		return nil, fmt.Errorf("decode case %s payload: %w", c.ID, err)
	}
	return &c, nil
}

func (r *caseRepoPG) Create(ctx context.Context, c *Case) error {
	c.ID = uuid.New()
	raw, err := toPayload(c)
	if err != nil {
		return fmt.Errorf("encode case payload: %w", err)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tavi_case (id, patient_name, chart_number, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING version_id, created_at, updated_at`,
		c.ID, c.Patient.Name, c.Patient.ChartNumber, raw,
	).Scan(&c.VersionID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM tavi_case WHERE id = $1`, id))
}

func (r *caseRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Case, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM tavi_case WHERE id = $1 FOR UPDATE`, id))
}

func (r *caseRepoPG) Update(ctx context.Context, c *Case) error {
	raw, err := toPayload(c)
	if err != nil {
		return fmt.Errorf("encode case payload: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE tavi_case SET patient_name=$2, chart_number=$3, payload=$4,
			version_id = version_id + 1, updated_at=NOW()
		WHERE id = $1 AND ($5 = 0 OR version_id = $5)
		RETURNING version_id, created_at, updated_at`,
		c.ID, c.Patient.Name, c.Patient.ChartNumber, raw, c.VersionID,
	).Scan(&c.VersionID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.updateMiss(ctx, c.ID)
	}
	return err
}

// updateMiss tells a missing row from a stale version.
func (r *caseRepoPG) updateMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tavi_case WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCaseNotFound
	}
	return ErrVersionConflict
}

func (r *caseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM tavi_case WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func (r *caseRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Case, int, error) {
	query := `SELECT ` + caseCols + ` FROM tavi_case WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM tavi_case WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND patient_name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_name ILIKE $%d`, idx)
		args = append(args, "%"+p+"%")
		idx++
	}
	if p, ok := params["chart_number"]; ok {
		query += fmt.Sprintf(` AND chart_number = $%d`, idx)
		countQuery += fmt.Sprintf(` AND chart_number = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Case
	for rows.Next() {
		c, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
