package casefile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tavi/preauth/internal/platform/db"
)

var (
	ErrCaseNotFound        = errors.New("case not found")
	ErrExaminationNotFound = errors.New("examination not found")
	ErrInvalidCase         = errors.New("invalid case")
	ErrVersionConflict     = errors.New("case was modified concurrently")

	// ErrPatientUnidentified is returned by consumers that need the patient
	// name of a case they were handed and found none.
	ErrPatientUnidentified = errors.New("缺少必要的病患資料")
)

// TxRunner runs fn in a transaction. db.WithTx bound to a pool satisfies it.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// NoTx runs fn directly. Used when the repository is not transactional.
func NoTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// PoolTx binds db.WithTx to a transaction starter.
func PoolTx(starter db.TxStarter) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, starter, fn)
	}
}

type Service struct {
	repo     CaseRepository
	progress ProgressStore
	inTx     TxRunner
	logger   zerolog.Logger
}

func NewService(repo CaseRepository, progress ProgressStore, inTx TxRunner, logger zerolog.Logger) *Service {
	if inTx == nil {
		inTx = NoTx
	}
	if progress == nil {
		progress = NewMemoryProgressStore()
	}
	return &Service{repo: repo, progress: progress, inTx: inTx, logger: logger}
}

var validGenders = map[string]bool{
	SexMale: true, SexFemale: true,
}

var validNYHAClasses = map[string]bool{
	"I": true, "II": true, "III": true, "IV": true,
}

var validScoreSystems = map[string]bool{
	ScoreSTS: true, ScoreEuroSCORE: true,
}

// Validate checks a case the way the intake form does. Unknown examination
// types are accepted; they render with their raw type as the label.
func Validate(c *Case) error {
	if strings.TrimSpace(c.Patient.Name) == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidCase)
	}
	if strings.TrimSpace(c.Patient.ChartNumber) == "" {
		return fmt.Errorf("%w: chart number is required", ErrInvalidCase)
	}
	if c.Patient.Gender != "" && !validGenders[c.Patient.Gender] {
		return fmt.Errorf("%w: invalid gender: %s", ErrInvalidCase, c.Patient.Gender)
	}
	if c.Patient.BirthDate != "" {
		if _, err := time.Parse(DateLayout, c.Patient.BirthDate); err != nil {
			return fmt.Errorf("%w: birth date must be YYYY-MM-DD", ErrInvalidCase)
		}
	}
	for _, h := range c.MedicalHistory {
		if _, ok := MedicalHistoryLabels[h]; !ok {
			return fmt.Errorf("%w: unknown medical history: %s", ErrInvalidCase, h)
		}
	}
	for _, s := range c.Symptoms {
		if _, ok := SymptomLabels[s]; !ok {
			return fmt.Errorf("%w: unknown symptom: %s", ErrInvalidCase, s)
		}
	}
	for i := range c.Examinations {
		if err := validateExamination(&c.Examinations[i]); err != nil {
			return err
		}
	}
	return validateRisk(&c.RiskAssessment)
}

func validateExamination(e *Examination) error {
	if strings.TrimSpace(string(e.Type)) == "" {
		return fmt.Errorf("%w: examination type is required", ErrInvalidCase)
	}
	if e.Date != "" {
		if _, err := time.Parse(DateLayout, e.Date); err != nil {
			return fmt.Errorf("%w: examination date must be YYYY-MM-DD", ErrInvalidCase)
		}
	}
	if e.LabFindings != "" && e.Type != ExamLabReport {
		return fmt.Errorf("%w: lab findings only apply to lab-report", ErrInvalidCase)
	}
	return nil
}

func validateRisk(r *RiskAssessment) error {
	if r.NYHAClass != "" && !validNYHAClasses[r.NYHAClass] {
		return fmt.Errorf("%w: invalid NYHA class: %s", ErrInvalidCase, r.NYHAClass)
	}
	if r.Score != nil && !validScoreSystems[r.Score.System] {
		return fmt.Errorf("%w: invalid risk score system: %s", ErrInvalidCase, r.Score.System)
	}
	return nil
}

func assignExaminationIDs(c *Case) {
	for i := range c.Examinations {
		if c.Examinations[i].ID == "" {
			c.Examinations[i].ID = uuid.NewString()
		}
	}
}

func (s *Service) CreateCase(ctx context.Context, c *Case) error {
	if err := Validate(c); err != nil {
		return err
	}
	assignExaminationIDs(c)
	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	s.logger.Info().Str("case_id", c.ID.String()).Int("examinations", len(c.Examinations)).Msg("case created")
	return nil
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateCase(ctx context.Context, c *Case) error {
	if err := Validate(c); err != nil {
		return err
	}
	assignExaminationIDs(c)
	return s.repo.Update(ctx, c)
}

func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.progress.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("case_id", id.String()).Msg("failed to clear case progress")
	}
	return nil
}

func (s *Service) ListCases(ctx context.Context, params map[string]string, limit, offset int) ([]*Case, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}

// mutate loads the case under a row lock, applies fn and writes it back.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(c *Case) error) (*Case, error) {
	var out *Case
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) AddExamination(ctx context.Context, caseID uuid.UUID, e *Examination) (*Examination, error) {
	if err := validateExamination(e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, caseID, func(c *Case) error {
		for _, existing := range c.Examinations {
			if existing.ID == e.ID {
				return fmt.Errorf("%w: duplicate examination id %s", ErrInvalidCase, e.ID)
			}
		}
		c.Examinations = append(c.Examinations, *e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) UpdateExamination(ctx context.Context, caseID uuid.UUID, e *Examination) (*Examination, error) {
	if err := validateExamination(e); err != nil {
		return nil, err
	}
	_, err := s.mutate(ctx, caseID, func(c *Case) error {
		for i := range c.Examinations {
			if c.Examinations[i].ID == e.ID {
				c.Examinations[i] = *e
				return nil
			}
		}
		return ErrExaminationNotFound
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) RemoveExamination(ctx context.Context, caseID uuid.UUID, examID string) error {
	_, err := s.mutate(ctx, caseID, func(c *Case) error {
		for i := range c.Examinations {
			if c.Examinations[i].ID == examID {
				c.Examinations = append(c.Examinations[:i], c.Examinations[i+1:]...)
				return nil
			}
		}
		return ErrExaminationNotFound
	})
	return err
}

// SetSignedDocument stores the scanned two-surgeon determination. A nil
// image removes it.
func (s *Service) SetSignedDocument(ctx context.Context, caseID uuid.UUID, img Image) (*Case, error) {
	return s.mutate(ctx, caseID, func(c *Case) error {
		c.SignedDocument = img
		return nil
	})
}

// SetSummary stores a generated summary on the case.
func (s *Service) SetSummary(ctx context.Context, caseID uuid.UUID, summary string) (*Case, error) {
	return s.mutate(ctx, caseID, func(c *Case) error {
		c.GeneratedSummary = summary
		return nil
	})
}

// MaxStep is the last wizard step (signed document upload).
const MaxStep = 8

func (s *Service) GetProgress(ctx context.Context, caseID uuid.UUID) (*Progress, error) {
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	p, err := s.progress.Get(ctx, caseID)
	if errors.Is(err, ErrProgressNotFound) {
		return &Progress{CurrentStep: 1}, nil
	}
	return p, err
}

func (s *Service) SetProgress(ctx context.Context, caseID uuid.UUID, p Progress) error {
	if p.CurrentStep < 1 || p.CurrentStep > MaxStep {
		return fmt.Errorf("%w: current step must be between 1 and %d", ErrInvalidCase, MaxStep)
	}
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return err
	}
	return s.progress.Set(ctx, caseID, p)
}
