package casefile

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for birth and examination dates.
const DateLayout = "2006-01-02"

// Case maps to the tavi_case table. Everything except the identity and
// audit columns is stored in the JSONB payload.
type Case struct {
	ID               uuid.UUID      `json:"id"`
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
	VersionID        int            `json:"versionId"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Sex values.
const (
	SexMale   = "male"
	SexFemale = "female"
)

type Patient struct {
	Name        string `json:"name"`
	ChartNumber string `json:"chartNumber"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birthDate,omitempty"`
	NationalID  string `json:"nationalId,omitempty"`
}

// Age returns the age in whole years at now. ok is false when the birth
// date is missing or unparseable.
func (p Patient) Age(now time.Time) (int, bool) {
	birth, err := time.Parse(DateLayout, p.BirthDate)
	if err != nil {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

type ClinicalCourse struct {
	PreviousCare string `json:"previousCare,omitempty"`
	Presentation string `json:"presentation,omitempty"`
}

// ExamType identifies the kind of an examination record. Values outside the
// known set are kept as-is and rendered with the raw string as label.
type ExamType string

const (
	ExamEchocardiography        ExamType = "echocardiography"
	ExamCatheterization         ExamType = "catheterization"
	ExamEKG                     ExamType = "ekg"
	ExamChestXray               ExamType = "chest-xray"
	ExamHeartCT                 ExamType = "heart-ct"
	ExamPulmonaryFunction       ExamType = "pulmonary-function"
	ExamABI                     ExamType = "abi"
	ExamMyocardialPerfusionScan ExamType = "myocardial-perfusion-scan"
	ExamVitalSigns              ExamType = "vital-signs"
	ExamLabReport               ExamType = "lab-report"
	ExamMedicalRecord           ExamType = "medical-record"
	ExamMedicationRecord        ExamType = "medication-record"
	ExamListOfDiagnosis         ExamType = "list-of-diagnosis"
	ExamAssessmentAndPlan       ExamType = "assessment-and-plan"
	ExamSTSScore                ExamType = "sts-score"
	ExamEuroSCORE               ExamType = "euroscore"
)

type Examination struct {
	ID          string   `json:"id"`
	Type        ExamType `json:"type"`
	Date        string   `json:"date,omitempty"`
	TextContent string   `json:"textContent,omitempty"`
	LabFindings string   `json:"labFindings,omitempty"`
	Images      []Image  `json:"images,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Risk score systems. A case carries at most one score.
const (
	ScoreSTS       = "sts"
	ScoreEuroSCORE = "euroscore"
)

type RiskScore struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

type RiskAssessment struct {
	Surgeon1      string     `json:"surgeon1,omitempty"`
	Surgeon2      string     `json:"surgeon2,omitempty"`
	Score         *RiskScore `json:"score,omitempty"`
	NYHAClass     string     `json:"nyhaClass,omitempty"`
	UrgencyReason string     `json:"urgencyReason,omitempty"`
}

// Progress is the wizard position of a case being filled in.
type Progress struct {
	CurrentStep int  `json:"currentStep"`
	IsComplete  bool `json:"isComplete"`
}

// Labels for the tag vocabularies, used when rendering prompts.
var MedicalHistoryLabels = map[string]string{
	"Aortic stenosis":     "主動脈瓣膜狹窄",
	"Atrial fibrillation": "心房顫動",
	"Hypertension":        "高血壓",
	"Type 2 diabetes":     "第二型糖尿病",
	"Hyperlipidemia":      "高血脂",
	"CAD":                 "冠狀動脈疾病",
	"CKD":                 "慢性腎臟病",
	"HFrEF":               "射出分率降低型心臟衰竭",
	"HFpEF":               "射出分率保留型心臟衰竭",
	"COPD":                "慢性阻塞性肺病",
}

var SymptomLabels = map[string]string{
	"dyspnea":                      "呼吸困難",
	"dizziness":                    "頭暈",
	"chest discomfort":             "胸悶",
	"hypotension":                  "低血壓",
	"orthopnea":                    "端坐呼吸",
	"weakness":                     "虛弱",
	"syncope":                      "暈厥",
	"decreased exercise tolerance": "運動耐力下降",
}

var NYHALabels = map[string]string{
	"I":   "Class I - 無症狀",
	"II":  "Class II - 輕度活動受限",
	"III": "Class III - 明顯活動受限",
	"IV":  "Class IV - 休息時也有症狀",
}
