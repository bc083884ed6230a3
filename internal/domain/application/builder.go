package application

import (
	"fmt"
	"strings"

	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/platform/imagesize"
)

// BuildResult is the ordered outline of an application document plus any
// image degradations met while laying it out.
type BuildResult struct {
	Blocks       []Block       `json:"blocks"`
	Degradations []Degradation `json:"degradations,omitempty"`
}

// Degraded reports whether any image fell back or was replaced.
func (r *BuildResult) Degraded() bool {
	return len(r.Degradations) > 0
}

// Sections returns the number of numbered sections, the surgeon
// determination included.
func (r *BuildResult) Sections() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Kind == KindHeading {
			n++
		}
	}
	return n
}

type builder struct {
	res     BuildResult
	section int
}

// Build lays out the complete application for c. The summary is taken
// verbatim; signed is the scanned two-surgeon determination, if any.
// Examination groups follow the canonical type order with records of the
// same type kept in input order; see Ordered. Unknown types are labelled
// with their raw type string.
func Build(c *casefile.Case, summary string, signed casefile.Image) BuildResult {
	b := &builder{}

	b.add(Block{Kind: KindTitle, Text: DocumentTitle})
	for _, line := range splitLines(summary) {
		b.add(Block{Kind: KindParagraph, Text: line})
	}
	b.add(Block{Kind: KindDivider, Text: Divider})

	for _, e := range Ordered(c.Examinations) {
		b.examination(e)
	}

	b.heading(SurgeonSectionTitle)
	if len(signed) > 0 {
		b.image(signed, 0)
	} else {
		b.add(Block{Kind: KindPlaceholder, Text: SignedDocumentPlaceholder})
	}
	return b.res
}

// Ordered returns the examinations in document order: canonical type order,
// input order within a type, unknown types last.
func Ordered(exams []casefile.Examination) []*casefile.Examination {
	out := make([]*casefile.Examination, 0, len(exams))
	for _, t := range examOrder {
		for i := range exams {
			if exams[i].Type == t {
				out = append(out, &exams[i])
			}
		}
	}
	for i := range exams {
		if !IsKnownType(exams[i].Type) {
			out = append(out, &exams[i])
		}
	}
	return out
}

func (b *builder) add(blk Block) {
	if blk.Section == 0 {
		blk.Section = b.section
	}
	b.res.Blocks = append(b.res.Blocks, blk)
}

func (b *builder) heading(label string) {
	b.section++
	b.add(Block{Kind: KindHeading, Text: fmt.Sprintf("%d. %s", b.section, label), Label: label})
}

func (b *builder) examination(e *casefile.Examination) {
	b.heading(Label(e.Type))
	if e.TextContent != "" {
		for _, line := range splitLines(e.TextContent) {
			b.add(Block{Kind: KindParagraph, Text: line})
		}
	}
	if e.Type == casefile.ExamLabReport && e.LabFindings != "" {
		b.add(Block{Kind: KindHighlight, Label: LabFindingsLabel, Text: e.LabFindings})
	}
	for i, img := range e.Images {
		b.image(img, i)
	}
	b.add(Block{Kind: KindDivider, Text: Divider})
}

func (b *builder) image(data []byte, index int) {
	res := imagesize.Inspect(data)
	if res.Fallback {
		b.degrade(DegradedHeader, index, string(res.Reason))
	}
	size, err := Size(res.Descriptor)
	if err != nil {
		b.degrade(DegradedDimensions, index, err.Error())
		size, _ = SizeOrFallback(res.Descriptor)
	}
	b.add(Block{Kind: KindImage, Image: &ImageBlock{
		Data:   data,
		Index:  index,
		Format: res.Format,
		Pixels: res.Descriptor,
		Size:   size,
	}})
}

func (b *builder) degrade(kind DegradationKind, index int, detail string) {
	b.res.Degradations = append(b.res.Degradations, Degradation{
		Kind:    kind,
		Section: b.section,
		Image:   index,
		Detail:  detail,
	})
}

// splitLines splits on newlines, one paragraph per line. A CR before the
// newline is dropped.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
