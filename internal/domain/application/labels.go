package application

import "github.com/tavi/preauth/internal/domain/casefile"

// Fixed document text.
const (
	DocumentTitle             = "TAVI 事前審查"
	Divider                   = "═══════════════════════════════════════"
	SurgeonSectionTitle       = "二位心臟外科專科醫師判定無法以傳統開心手術進行主動脈瓣膜置換或開刀危險性過高"
	SignedDocumentPlaceholder = "[請在步驟 8 上傳已簽名的醫師評估文件]"
	ImagePlaceholder          = "[圖片載入失敗]"
	LabFindingsLabel          = "重要 Lab Findings："
)

// examOrder is the canonical section order of examination groups.
var examOrder = []casefile.ExamType{
	casefile.ExamEchocardiography,
	casefile.ExamCatheterization,
	casefile.ExamEKG,
	casefile.ExamChestXray,
	casefile.ExamHeartCT,
	casefile.ExamPulmonaryFunction,
	casefile.ExamABI,
	casefile.ExamMyocardialPerfusionScan,
	casefile.ExamVitalSigns,
	casefile.ExamLabReport,
	casefile.ExamMedicalRecord,
	casefile.ExamMedicationRecord,
	casefile.ExamListOfDiagnosis,
	casefile.ExamAssessmentAndPlan,
	casefile.ExamSTSScore,
	casefile.ExamEuroSCORE,
}

var examLabels = map[casefile.ExamType]string{
	casefile.ExamEchocardiography:        "心臟超音波檢查",
	casefile.ExamCatheterization:         "心導管檢查",
	casefile.ExamEKG:                     "EKG 心電圖檢查",
	casefile.ExamChestXray:               "Chest X-ray",
	casefile.ExamHeartCT:                 "Heart CT",
	casefile.ExamPulmonaryFunction:       "肺功能檢查",
	casefile.ExamABI:                     "四肢血流探測 (ABI)",
	casefile.ExamMyocardialPerfusionScan: "心肌灌注掃描",
	casefile.ExamVitalSigns:              "生理測量資訊",
	casefile.ExamLabReport:               "檢驗報告",
	casefile.ExamMedicalRecord:           "就醫紀錄",
	casefile.ExamMedicationRecord:        "就醫用藥",
	casefile.ExamListOfDiagnosis:         "List of Diagnosis (Problem List)",
	casefile.ExamAssessmentAndPlan:       "Assessment and Plan",
	casefile.ExamSTSScore:                "STS Score",
	casefile.ExamEuroSCORE:               "EuroSCORE",
}

// CanonicalOrder returns a copy of the examination section order.
func CanonicalOrder() []casefile.ExamType {
	out := make([]casefile.ExamType, len(examOrder))
	copy(out, examOrder)
	return out
}

// Label returns the display label of an examination type, or the raw type
// string when the type is not known.
func Label(t casefile.ExamType) string {
	if l, ok := examLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsKnownType reports whether t has a place in the canonical order.
func IsKnownType(t casefile.ExamType) bool {
	_, ok := examLabels[t]
	return ok
}
