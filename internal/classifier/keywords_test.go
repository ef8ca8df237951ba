package classifier

import "testing"

func TestKeywordStatsCountsMatches(t *testing.T) {
	text := "This invoice has an invoice number and a due date. Total amount due is $100."
	stats := keywordStats(text)

	if stats["invoice"].Unique == 0 {
		t.Fatalf("expected invoice category to match keywords, got %+v", stats["invoice"])
	}
	if stats["invoice"].Count == 0 {
		t.Fatalf("expected nonzero count for invoice category")
	}
}

func TestKeywordPredictionPicksHighestUnique(t *testing.T) {
	stats := map[string]categoryStat{
		"invoice":         {Unique: 5},
		"bank_statement":  {Unique: 2},
		"drivers_license": {Unique: 0},
	}
	category, score, confidence := keywordPrediction(stats)

	if category != "invoice" {
		t.Fatalf("expected invoice, got %s", category)
	}
	if score != 5 {
		t.Fatalf("expected score 5, got %d", score)
	}
	wantConfidence := 5.0 / 7.0
	if confidence != wantConfidence {
		t.Fatalf("expected confidence %f, got %f", wantConfidence, confidence)
	}
}

func TestKeywordPredictionTiesBreakLexicographically(t *testing.T) {
	stats := map[string]categoryStat{
		"invoice":        {Unique: 3},
		"bank_statement": {Unique: 3},
	}
	category, _, _ := keywordPrediction(stats)
	if category != "bank_statement" {
		t.Fatalf("expected lexicographically earliest tie winner bank_statement, got %s", category)
	}
}

func TestKeywordPredictionNoMatchesReturnsUnknown(t *testing.T) {
	stats := keywordStats("")
	category, score, confidence := keywordPrediction(stats)
	if category != unknownCategory {
		t.Fatalf("expected unknown_file, got %s", category)
	}
	if score != 0 || confidence != 0 {
		t.Fatalf("expected zero score/confidence, got %d/%f", score, confidence)
	}
}

func TestKeywordPredictionSingleNonzeroCategoryHasFullConfidence(t *testing.T) {
	stats := map[string]categoryStat{
		"invoice": {Unique: 4},
	}
	category, _, confidence := keywordPrediction(stats)
	if category != "invoice" {
		t.Fatalf("expected invoice, got %s", category)
	}
	if confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %f", confidence)
	}
}
