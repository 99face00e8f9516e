package repository

import "testing"

func TestAnalysisRow_TableName(t *testing.T) {
	if got := (AnalysisRow{}).TableName(); got != "image_analyses" {
		t.Errorf("Expected table image_analyses, got %s", got)
	}
}
