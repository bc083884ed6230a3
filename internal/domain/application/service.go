package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/platform/docx"
)

var (
	ErrSummaryFailed = errors.New("summary generation failed")
	ErrSerialize     = errors.New("document serialization failed")
)

// Summarizer produces the clinical summary paragraph of a case.
type Summarizer interface {
	Generate(ctx context.Context, c *casefile.Case) (string, error)
}

// CaseSource is the part of the case service document generation reads
// from and writes generated summaries to.
type CaseSource interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error)
	SetSummary(ctx context.Context, id uuid.UUID, summary string) (*casefile.Case, error)
}

// File is a generated download. Sections and Degradations are only set
// for application documents.
type File struct {
	Name         string
	ContentType  string
	Data         []byte
	Sections     int
	Degradations []Degradation
}

type Service struct {
	cases      CaseSource
	summarizer Summarizer
	logger     zerolog.Logger
}

// NewService wires document generation. summarizer may be nil, in which
// case summaries must be supplied.
func NewService(cases CaseSource, summarizer Summarizer, logger zerolog.Logger) *Service {
	return &Service{cases: cases, summarizer: summarizer, logger: logger}
}

func patientOf(c *casefile.Case) PatientInfo {
	return PatientInfo{Name: c.Patient.Name, ChartNumber: c.Patient.ChartNumber}
}

// Application builds and serializes the complete application. A signed
// document passed in takes precedence over the one stored on the case.
func (s *Service) Application(ctx context.Context, c *casefile.Case, summary string, signed casefile.Image) (*File, error) {
	if c == nil || strings.TrimSpace(c.Patient.Name) == "" {
		return nil, ErrMissingPatient
	}
	if strings.TrimSpace(summary) == "" {
		return nil, ErrMissingSummary
	}
	if len(signed) == 0 {
		signed = c.SignedDocument
	}

	res := Build(c, summary, signed)
	doc, embedFailures, err := Render(res, docx.WithCreator(c.Patient.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	res.Degradations = append(res.Degradations, embedFailures...)

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	log := s.logger.With().
		Str("chart_number", c.Patient.ChartNumber).
		Int("sections", res.Sections()).
		Int("images", doc.MediaCount()).
		Int("bytes", len(data)).
		Logger()
	for _, d := range res.Degradations {
		log.Warn().
			Str("kind", string(d.Kind)).
			Int("section", d.Section).
			Int("image", d.Image).
			Str("detail", d.Detail).
			Msg("image degraded")
	}
	log.Info().Int("degradations", len(res.Degradations)).Msg("application document generated")

	return &File{
		Name:         ApplicationFileName(patientOf(c)),
		ContentType:  docx.MIMEType,
		Data:         data,
		Sections:     res.Sections(),
		Degradations: res.Degradations,
	}, nil
}

// ApplicationForCase renders a stored case. With generate set, a fresh
// summary is produced first and saved on the case; otherwise the stored
// summary is used.
func (s *Service) ApplicationForCase(ctx context.Context, id uuid.UUID, generate bool) (*File, error) {
	c, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if generate {
		if c, err = s.summarize(ctx, c); err != nil {
			return nil, err
		}
	}
	return s.Application(ctx, c, c.GeneratedSummary, nil)
}

func (s *Service) summarize(ctx context.Context, c *casefile.Case) (*casefile.Case, error) {
	if s.summarizer == nil {
		return nil, fmt.Errorf("%w: no summarizer configured", ErrSummaryFailed)
	}
	text, err := s.summarizer.Generate(ctx, c)
	if errors.Is(err, casefile.ErrPatientUnidentified) {
		return nil, fmt.Errorf("%w: %w", ErrMissingPatient, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}
	updated, err := s.cases.SetSummary(ctx, c.ID, text)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SurgeonAssessment serializes the two-surgeon determination form.
func (s *Service) SurgeonAssessment(p PatientInfo, summary string) (*File, error) {
	doc, err := SurgeonAssessment(p, summary)
	if err != nil {
		return nil, err
	}
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	s.logger.Info().Str("chart_number", p.ChartNumber).Int("bytes", len(data)).Msg("surgeon assessment generated")
	return &File{
		Name:        SurgeonAssessmentFileName(p),
		ContentType: docx.MIMEType,
		Data:        data,
	}, nil
}

// ExaminationSheet exports the examinations of a stored case.
func (s *Service) ExaminationSheet(ctx context.Context, id uuid.UUID) (*File, error) {
	c, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := ExaminationSheet(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return &File{
		Name:        ExaminationSheetFileName(patientOf(c)),
		ContentType: XLSXMIMEType,
		Data:        data,
	}, nil
}
