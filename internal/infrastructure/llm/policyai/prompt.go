package policyai

import (
	"fmt"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const (
	extractionSnippetLimit = 4000
	comparisonSnippetLimit = 2000
	advisorContextLimit    = 6000
)

const extractionRules = `OUTPUT RULES (VERY IMPORTANT)
- Return ONLY valid JSON. No markdown, headers, or extra text.
- Use simple words and short sentences (15 words or fewer).
- If a value is missing, use null (not "N/A" or empty strings).
- Dates must be YYYY-MM-DD when possible.
- Currency amounts should include the currency code if present (e.g., "INR 100000").
- Keep arrays for lists; avoid long paragraphs.
- Do not invent facts.

STEP A - DOCUMENT VALIDATION (run before extraction)
1) Decide if the document is a real insurance policy.
   - Signals of a policy: insurer name, policy number, coverage, exclusions, premium, claim process.
   - If NOT a policy or unclear, return this minimal JSON and STOP:
   {
     "isPolicyDocument": false,
     "message": "Please upload a valid insurance policy document.",
     "detectedType": "<best guess, e.g., brochure, invoice, general article>",
     "confidence": 0.0,
     "reasons": ["Document lacks insurance policy structure", "No coverage details found"]
   }

STEP B - EXTRACTION (only if it IS a policy)
Produce the following JSON exactly. Keep language very simple. Use short bullet-like strings inside arrays.
`

const extractionShape = `{
  "isPolicyDocument": true,
  "validation": {
    "detectedType": "Life | Health | Auto | Home | Other",
    "confidence": 0.8,
    "reasons": ["Contains policy number and coverage details", "Has premium information"]
  },
  "policyMeta": {
    "name": %q,
    "hintType": %q,
    "insurer": "Company name or null",
    "policyNumber": "Number or null",
    "jurisdiction": "Region or null",
    "versionOrEdition": "If stated, else null"
  },
  "summary": {
    "overview": "2-3 very short sentences. No jargon.",
    "points": ["Up to 10 main points, each 15 words or fewer, in plain words."]
  },
  "effectiveDate": "YYYY-MM-DD or null",
  "expiryDate": "YYYY-MM-DD or null",
  "department": "Department or division if any, else null",
  "coverage": [
    {
      "topic": "Hospitalization | Surgery | Accidents | Roadside | etc.",
      "included": true,
      "details": "One short sentence.",
      "limit": "e.g., INR 500000 per year or null",
      "waitingPeriod": "e.g., 2 years or null",
      "deductible": "e.g., INR 10000 or null",
      "copay": "e.g., 10%% or null"
    }
  ],
  "exclusions": [{"topic": "What is not covered", "details": "One short sentence."}],
  "financials": {
    "premium": "Amount or null",
    "sumAssured": "Amount or null",
    "deductible": "Amount or null",
    "maxOutOfPocket": "Amount or null",
    "additionalCharges": ["Short items or empty array"]
  },
  "claimProcess": ["Step 1 in 12 words or fewer."],
  "eligibility": ["Short rule."],
  "tags": ["5-7 short tags about coverage and features"],
  "recentActivity": [
    {"id": 1, "description": "Policy uploaded and analyzed", "timestamp": %q, "user": "PolicyBridge AI"}
  ],
  "mlInsights": {
    "riskAssessment": "Low | Medium | High",
    "coverageScore": "0-100 (integer)",
    "costEfficiency": "Excellent | Good | Fair | Poor",
    "optimizationTips": ["3-4 short, specific tips to save money or improve cover."],
    "marketComparison": "Above Average | Average | Below Average"
  },
  "missingFields": ["Keys you could not find, like premium or policyNumber"],
  "extractionQuality": {"confidence": 0.8, "notes": "Any extraction issues or assumptions made"}
}
`

const extractionClosing = `
IMPORTANT:
- Return ONLY the JSON object, no additional text
- Ensure all JSON syntax is valid
- Use null for missing values, not empty strings
- Keep all text simple and under 15 words per field
- Focus on extracting what you can find, don't invent information
`

// BuildExtractionPrompt asks for the full structured JSON shape. Only the
// first 4000 bytes of the document are sent.
func BuildExtractionPrompt(meta domain.PolicyMetadata, text, today string) string {
	hint := string(meta.Category)
	if hint == "" {
		hint = "Unknown"
	}

	var b strings.Builder
	b.WriteString("You are PolicyBridge AI, a professional insurance policy analyst. ")
	b.WriteString("Read the uploaded document, validate it, and extract structured information. ")
	b.WriteString("Always use clear, simple language that a 14-year-old can understand.\n\n")
	b.WriteString("INPUT\n")
	fmt.Fprintf(&b, "- Policy Name: %s\n", meta.Name)
	fmt.Fprintf(&b, "- Policy Type (hint): %s\n", hint)
	b.WriteString("- Document Content (truncated):\n")
	b.WriteString(truncate(text, extractionSnippetLimit))
	b.WriteString("\n\n")
	b.WriteString(extractionRules)
	b.WriteString("\n")
	fmt.Fprintf(&b, extractionShape, meta.Name, hint, today)
	b.WriteString(extractionClosing)
	return b.String()
}

var comparisonSections = []struct {
	title  string
	header string
	rows   []string
}{
	{"COVERAGE COMPARISON", "Feature", []string{"Cover Amount", "Premium Amount", "Policy Term", "Coverage Type", "Sum Assured", "Riders Available", "Additional Benefits", "Family Coverage", "Premium Payment Mode", "Grace Period"}},
	{"EXCLUSIONS COMPARISON", "Exclusion Category", []string{"Pre-existing Conditions", "War & Terrorism", "Hazardous Activities", "Occupational Risks", "Geographical Limits", "Age Restrictions", "Health Conditions"}},
	{"COST ANALYSIS", "Cost Component", []string{"Base Premium", "Loading Factors", "Discounts Available", "Hidden Charges", "Tax Benefits", "Surrender Value"}},
	{"CLAIMS & SETTLEMENT", "Claims Aspect", []string{"Claim Settlement Ratio", "Average Settlement Time", "Documents Required", "Claim Process", "Nomination Process"}},
	{"ADDITIONAL FEATURES", "Feature", []string{"Online Services", "Customer Support", "Policy Modifications", "Revival Period", "Portability"}},
}

const comparisonRules = `
## SUMMARY
[3-4 bullet points on the most significant differences and which policy excels where]

## RECOMMENDATIONS
[4-5 recommendations for different customer types: budget-conscious, comprehensive coverage seekers, family-oriented, high-risk individuals]

RULES:
- Use ONLY bullet points (•) for lists, NO stars (*) or asterisks
- If a feature is not applicable, write "Not Available" with a reason
- If both policies have the same feature, write "Same as Policy 1" in the Policy 2 column
- Focus on DIFFERENCES and include numbers, dates and specific terms wherever possible
`

// BuildComparisonPrompt asks for the fixed tabular narrative. Each policy
// contributes at most 2000 bytes of text.
func BuildComparisonPrompt(text1, text2 string) string {
	var b strings.Builder
	b.WriteString("You are an expert insurance policy analyst with 20+ years of experience. ")
	b.WriteString("Provide a detailed comparison between two insurance policies.\n\n")
	b.WriteString("POLICY 1 TEXT:\n")
	b.WriteString(truncate(text1, comparisonSnippetLimit))
	b.WriteString("\n\nPOLICY 2 TEXT:\n")
	b.WriteString(truncate(text2, comparisonSnippetLimit))
	b.WriteString("\n\nIMPORTANT INSTRUCTIONS:\n")
	b.WriteString(`1. FIRST VALIDATE: Check if both documents are actual insurance policies. If not, return "ERROR: One or both documents are not insurance policies."` + "\n")
	b.WriteString(`2. CHECK CATEGORY: Verify both policies are of the same category (life, health, motor, etc.). If different categories, return "ERROR: Policies are of different categories and cannot be compared directly."` + "\n")
	b.WriteString("3. FORMAT: Provide output in EXACTLY this tabular format:\n\n")
	for _, section := range comparisonSections {
		fmt.Fprintf(&b, "## %s\n| %s | Policy 1 | Policy 2 |\n|---|---|---|\n", section.title, section.header)
		for _, row := range section.rows {
			fmt.Fprintf(&b, "| %s | [details] | [details] |\n", row)
		}
		b.WriteString("\n")
	}
	b.WriteString(comparisonRules)
	return b.String()
}

const advisorSystemPrompt = `You are a helpful insurance policy assistant. Provide clear, simple answers that help users understand their policies.

IMPORTANT:
- Give short, helpful summaries (2-3 sentences max)
- Use simple language anyone can understand
- Focus on what the user asked
- Don't include technical details or debug information
- Be direct and actionable

Format your response as a simple, helpful answer.`

// BuildQuestionPrompt frames a free-form question about one policy. Earlier
// turns are replayed oldest first. History takes at most half of the context
// budget and the policy text gets the rest.
func BuildQuestionPrompt(policyContext string, history []domain.ConversationMessage, question string, analysisType domain.AnalysisType) string {
	historyText := renderHistory(history, advisorContextLimit/2)
	policyBudget := advisorContextLimit - len(historyText)

	var b strings.Builder
	b.WriteString(advisorSystemPrompt)
	b.WriteString("\n\nPolicy Information: ")
	b.WriteString(truncate(policyContext, policyBudget))
	if historyText != "" {
		b.WriteString("\n\nPrevious Conversation:\n")
		b.WriteString(historyText)
	}
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnalysis Type: ")
	b.WriteString(string(analysisType))
	b.WriteString("\n\nPlease provide a simple, helpful answer to the user's question about their policy.\n")
	return b.String()
}

const historyTurnLimit = 300

// renderHistory keeps the newest turns that fit in limit bytes, each turn
// capped at historyTurnLimit bytes.
func renderHistory(history []domain.ConversationMessage, limit int) string {
	lines := make([]string, 0, len(history))
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		speaker := "User"
		if msg.Role == domain.MessageRoleAI {
			speaker = "Assistant"
		}
		line := speaker + ": " + truncate(strings.TrimSpace(msg.Content), historyTurnLimit)
		if used+len(line)+1 > limit {
			break
		}
		used += len(line) + 1
		lines = append(lines, line)
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}
