package summary

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tavi/preauth/internal/domain/application"
	"github.com/tavi/preauth/internal/domain/casefile"
)

// ExcerptLength is how many characters of each examination's text go into
// the prompt.
const ExcerptLength = 200

const noRecord = "無記錄"
const none = "無"

const systemPrompt = `你是一位專業的醫療文書助理，專門協助撰寫 TAVI（經導管主動脈瓣膜置換術）健保事前審查申請文件中的「病患摘要段落」。

你的任務是根據提供的病患資料，生成一個**單一段落**的專業醫療摘要，用於「二位心臟外科專科醫師判定」文件。

**格式要求：**
1. 必須是**單一段落**，不分段
2. 使用繁體中文，專業醫學用語
3. 按照以下順序組織內容：
   - 個案基本資料（姓名、病歷號、性別、年齡、出生日期、身分證號）
   - History（病史，使用醫學英文縮寫，用頓號分隔）
   - 就醫歷程與症狀發展（時間序列敘述）
   - 重要檢查結果摘要（心臟超音波、心導管等）
   - 外科醫師評估（STS score、兩位醫師姓名）
   - 日常生活功能狀態
   - 存活機率評估
   - 手術適應症與緊急性說明
   - 結尾：請求健保局同意

**範例格式參考：**
"個案: [姓名] [病歷號]（[性別]）[年齡] 歲 [出生日期], [身分證號]；History：[病史1]、[病史2]、[病史3]，在[追蹤地點]追蹤。[症狀發生時間]開始感[症狀]的情形、[就醫時間]因[症狀]加劇至[地點]就醫。於 [日期] 安排心導管檢查: [結果摘要]。於 [日期] 心臟超音波：[關鍵數據]。[近期病情發展]，經二位心臟外科專科醫師([醫師1],[醫師2])評估(STS score >10%)傳統手術風險高；病患平時日常生活[功能狀態]，臨床上判定病人至少有一年以上之存活機率。醫病共享決策與家屬討論後決定申請經導管主動脈瓣膜置換手術(TAVI)來改善的症狀。由於主動脈瓣膜狹窄的情形(Critical AS) 隨時都有猝死的可能，需儘快施行經導管主動脈瓣膜置換術(TAVI)來改善的症狀，惠請貴局同意。"

**注意事項：**
- 所有日期使用民國年格式（例如 114/04/21）
- 醫學術語保持英文（如 Severe AS, LVEF, CAD 等）
- 數據要精確（如 AVA:0.67cm2, LVEF:32%）
- 語氣專業、客觀、簡潔
- 強調 Critical AS 的緊急性`

const closingInstructions = `**重要提示：**
1. 請生成**單一段落**，不要分段
2. 按照範例格式組織內容
3. 所有日期轉換為民國年格式
4. 保持醫學術語的英文縮寫
5. 強調 Critical AS 的緊急性，需儘快手術
6. 結尾請寫：「惠請貴局同意。」

請開始生成：`

// Prompt is the pair of texts sent to the text-generation service.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// BuildPrompt renders the summary prompt for c. now anchors the age
// calculation.
func BuildPrompt(c *casefile.Case, now time.Time) Prompt {
	var b strings.Builder
	b.WriteString("請根據以下病患資料，生成一個**單一段落**的 TAVI 事前審查摘要：\n\n")

	writePatient(&b, c.Patient, now)
	writeHistory(&b, c)
	writeSymptoms(&b, c)
	writeClinicalCourse(&b, c)
	writeExaminations(&b, c.Examinations)
	writeRisk(&b, c)

	b.WriteString(closingInstructions)
	b.WriteString("\n")
	return Prompt{System: systemPrompt, User: b.String()}
}

func writePatient(b *strings.Builder, p casefile.Patient, now time.Time) {
	b.WriteString("個案基本資料：\n")
	fmt.Fprintf(b, "- 姓名：%s\n", p.Name)
	fmt.Fprintf(b, "- 病歷號：%s\n", p.ChartNumber)
	fmt.Fprintf(b, "- 性別：%s\n", sexLabel(p.Gender))
	birth := orDefault(p.BirthDate, noRecord)
	if roc, ok := ROCDate(p.BirthDate); ok {
		birth += "（民國 " + roc
		if age, ok := p.Age(now); ok {
			birth += fmt.Sprintf("，%d 歲", age)
		}
		birth += "）"
	}
	fmt.Fprintf(b, "- 出生日期：%s\n", birth)
	fmt.Fprintf(b, "- 身分證號：%s\n\n", orDefault(p.NationalID, none))
}

func writeHistory(b *strings.Builder, c *casefile.Case) {
	items := append([]string{}, c.MedicalHistory...)
	if c.CustomHistory != "" {
		items = append(items, c.CustomHistory)
	}
	b.WriteString("病史 (History)：\n")
	b.WriteString(orDefault(strings.Join(items, "、"), noRecord))
	b.WriteString("\n\n")
}

func writeSymptoms(b *strings.Builder, c *casefile.Case) {
	items := make([]string, 0, len(c.Symptoms)+1)
	for _, s := range c.Symptoms {
		if l, ok := casefile.SymptomLabels[s]; ok {
			items = append(items, l)
		} else {
			items = append(items, s)
		}
	}
	if c.CustomSymptoms != "" {
		items = append(items, c.CustomSymptoms)
	}
	b.WriteString("症狀：\n")
	b.WriteString(orDefault(strings.Join(items, "、"), noRecord))
	fmt.Fprintf(b, "\n症狀發生時間：%s\n\n", orDefault(c.SymptomOnset, noRecord))
}

func writeClinicalCourse(b *strings.Builder, c *casefile.Case) {
	b.WriteString("就醫歷程：\n")
	fmt.Fprintf(b, "- 原追蹤地點：%s\n", orDefault(c.ClinicalCourse.PreviousCare, noRecord))
	fmt.Fprintf(b, "- 就醫經過：%s\n\n", orDefault(c.ClinicalCourse.Presentation, noRecord))
}

func writeExaminations(b *strings.Builder, exams []casefile.Examination) {
	if len(exams) == 0 {
		return
	}
	b.WriteString("檢查報告摘要：\n")
	for _, e := range application.Ordered(exams) {
		fmt.Fprintf(b, "%s：", application.Label(e.Type))
		if e.Date != "" {
			b.WriteString("日期 " + e.Date)
			if roc, ok := ROCDate(e.Date); ok {
				b.WriteString("（民國 " + roc + "）")
			}
		}
		if e.TextContent != "" {
			b.WriteString("\n" + Excerpt(e.TextContent, ExcerptLength))
		}
		if e.Type == casefile.ExamLabReport && e.LabFindings != "" {
			b.WriteString("\n" + application.LabFindingsLabel + e.LabFindings)
		}
		b.WriteString("\n\n")
	}
}

func writeRisk(b *strings.Builder, c *casefile.Case) {
	r := c.RiskAssessment
	b.WriteString("手術風險評估：\n")
	switch {
	case r.Score != nil && r.Score.System == casefile.ScoreEuroSCORE:
		fmt.Fprintf(b, "- EuroSCORE：%s\n", orDefault(r.Score.Value, noRecord))
	case r.Score != nil:
		fmt.Fprintf(b, "- STS Score：%s\n", orDefault(r.Score.Value, noRecord))
	default:
		fmt.Fprintf(b, "- STS Score：%s\n", noRecord)
	}
	fmt.Fprintf(b, "- 第一位心臟外科醫師：%s\n", orDefault(r.Surgeon1, none))
	fmt.Fprintf(b, "- 第二位心臟外科醫師：%s\n", orDefault(r.Surgeon2, none))
	nyha := none
	if l, ok := casefile.NYHALabels[r.NYHAClass]; ok {
		nyha = l
	}
	fmt.Fprintf(b, "- NYHA 心功能分級：%s\n", nyha)
	fmt.Fprintf(b, "- 手術適應症與緊急性：%s\n", orDefault(r.UrgencyReason, none))
	if c.FunctionalStatus != "" {
		fmt.Fprintf(b, "- 日常生活功能狀態：%s\n", c.FunctionalStatus)
	}
	if c.Prognosis != "" {
		fmt.Fprintf(b, "- 存活機率評估：%s\n", c.Prognosis)
	}
	b.WriteString("\n")
}

// ROCDate converts a YYYY-MM-DD date to the Minguo calendar form
// yyy/mm/dd. Dates before 1912 are not converted.
func ROCDate(date string) (string, bool) {
	t, err := time.Parse(casefile.DateLayout, date)
	if err != nil || t.Year() <= 1911 {
		return "", false
	}
	return fmt.Sprintf("%d/%02d/%02d", t.Year()-1911, int(t.Month()), t.Day()), true
}

// Excerpt returns the first n characters of s, marked with an ellipsis
// when cut.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func sexLabel(s string) string {
	switch s {
	case casefile.SexMale:
		return "男"
	case casefile.SexFemale:
		return "女"
	default:
		return noRecord
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
