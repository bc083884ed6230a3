package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tavi/preauth/internal/domain/casefile"
)

var (
	ErrMissingPatient  = casefile.ErrPatientUnidentified
	ErrExternalService = errors.New("summary generation failed")
)

// Completer is the text-generation collaborator: system and user prompt in,
// free text out. llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CaseStore is the part of the case service the summary endpoints need.
type CaseStore interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error)
	SetSummary(ctx context.Context, id uuid.UUID, summary string) (*casefile.Case, error)
}

type Service struct {
	llm    Completer
	cases  CaseStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(llm Completer, cases CaseStore, logger zerolog.Logger) *Service {
	return &Service{llm: llm, cases: cases, logger: logger, now: time.Now}
}

// Generate composes the clinical summary paragraph for c. The call is made
// once; any failure of the collaborator is reported as ErrExternalService.
func (s *Service) Generate(ctx context.Context, c *casefile.Case) (string, error) {
	if c == nil || strings.TrimSpace(c.Patient.Name) == "" {
		return "", ErrMissingPatient
	}
	p := BuildPrompt(c, s.now())

	start := time.Now()
	text, err := s.llm.Complete(ctx, p.System, p.User)
	if err != nil {
		s.logger.Error().Err(err).
			Str("chart_number", c.Patient.ChartNumber).
			Msg("summary generation failed")
		return "", fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty summary", ErrExternalService)
	}

	s.logger.Info().
		Str("chart_number", c.Patient.ChartNumber).
		Int("examinations", len(c.Examinations)).
		Int("length", len([]rune(text))).
		Dur("latency", time.Since(start)).
		Msg("summary generated")
	return text, nil
}

// GenerateForCase generates a summary for a stored case and saves it on the
// case.
func (s *Service) GenerateForCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error) {
	c, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := s.Generate(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.cases.SetSummary(ctx, id, text)
}
