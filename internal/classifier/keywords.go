package classifier

import (
	"sort"
	"strings"
)

// categoryKeywords maps a document category to its keyword set, verbatim
// from the corpus generator's document-type definitions.
var categoryKeywords = map[string][]string{
	"drivers_license": {
		"driver", "license", "licence", "driving licence", "driving license",
		"driver's license", "driver's licence", "identification", "ID", "operator",
		"permit", "DOB", "date of birth", "class", "issue date", "expiration",
		"expires", "restrictions", "endorsements", "organ donor", "DVLA", "DL",
		"driving", "provisional", "wheeler", "vehicle", "motorist", "number",
		"license number", "licence number", "state", "sex", "gender", "height",
		"weight", "eyes", "eye color", "hair", "hair color", "address", "street",
		"city", "zip", "signature", "hawaii", "honolulu", "peace", "issue",
		"birth date", "valid", "status", "type",
	},
	"bank_statement": {
		"account", "balance", "transaction", "statement", "deposit", "withdraw",
		"bank", "checking", "savings", "beginning balance", "ending balance",
		"ATM", "credit", "debit", "ROUTING", "ACCOUNT NO",
	},
	"invoice": {
		"invoice", "bill", "payment", "due date", "amount due", "total",
		"subtotal", "tax", "invoice number", "purchase order", "item",
		"quantity", "unit price", "amount", "terms", "ship to", "bill to",
	},
	"tax_return": {
		"tax", "return", "IRS", "income", "deduction", "filing", "W-2", "1099",
		"Form 1040", "exemption", "refund", "tax year", "adjusted gross income",
		"taxable income", "tax due", "withholding",
	},
	"medical_record": {
		"patient", "diagnosis", "prescription", "doctor", "hospital", "medical",
		"treatment", "health", "insurance", "medication", "allergies", "symptoms",
		"vital signs", "medical history", "physical examination",
	},
	"insurance_claim": {
		"claim", "policy", "insurance", "coverage", "premium", "beneficiary",
		"policyholder", "insurer", "claim number", "incident", "damage", "loss",
		"liability", "deductible", "coverage limits",
	},
}

// orderedCategories lists the known categories in a fixed, lexicographic
// order so tie-breaking during keyword prediction is deterministic.
var orderedCategories = func() []string {
	cats := make([]string, 0, len(categoryKeywords))
	for c := range categoryKeywords {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}()

// unknownCategory is returned whenever the classification pipeline cannot
// produce a confident label, per spec step 6.
const unknownCategory = "unknown_file"

// keywordStats computes count, unique-match, and density statistics for
// every known category against the text, matched case-insensitively.
func keywordStats(text string) map[string]categoryStat {
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		wordCount = 1
	}

	stats := make(map[string]categoryStat, len(categoryKeywords))
	for category, keywords := range categoryKeywords {
		var count, unique int
		for _, kw := range keywords {
			n := strings.Count(lower, strings.ToLower(kw))
			if n > 0 {
				count += n
				unique++
			}
		}
		stats[category] = categoryStat{
			Count:   count,
			Unique:  unique,
			Density: float64(count) / float64(wordCount),
		}
	}
	return stats
}

// categoryStat is the raw count/unique/density triple for one category.
type categoryStat struct {
	Count   int
	Unique  int
	Density float64
}

// keywordPrediction picks the category with the highest unique match count,
// breaking ties lexicographically, and derives a confidence score from the
// ratio between the top two scores.
func keywordPrediction(stats map[string]categoryStat) (category string, score int, confidence float64) {
	bestCategory := ""
	bestScore := -1
	secondScore := 0

	for _, c := range orderedCategories {
		s := stats[c].Unique
		if s > bestScore {
			secondScore = bestScore
			if secondScore < 0 {
				secondScore = 0
			}
			bestScore = s
			bestCategory = c
		} else if s > secondScore {
			secondScore = s
		}
	}

	if bestScore <= 0 {
		return unknownCategory, 0, 0
	}

	if secondScore > 0 {
		confidence = float64(bestScore) / float64(bestScore+secondScore)
	} else {
		confidence = 1.0
	}
	return bestCategory, bestScore, confidence
}
