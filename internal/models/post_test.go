package models

import "testing"

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in      string
		want    Sentiment
		wantErr bool
	}{
		{"positive", SentimentPositive, false},
		{"Positive", SentimentPositive, false},
		{" NEUTRAL ", SentimentNeutral, false},
		{"negative", SentimentNegative, false},
		{"", "", true},
		{"angry", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSentiment(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSentiment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSentiment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSentiment_TitleAndRank(t *testing.T) {
	if got := SentimentNeutral.Title(); got != "Neutral" {
		t.Errorf("Title() = %q, want Neutral", got)
	}
	if SentimentPositive.Rank() != 0 || SentimentNegative.Rank() != 2 {
		t.Error("Rank() does not follow canonical order")
	}
	if Sentiment("other").Rank() != len(Sentiments) {
		t.Error("Rank() of unknown label should sort last")
	}
}

func TestAirlineRank(t *testing.T) {
	if AirlineRank("Lufthansa") != len(Airlines) {
		t.Error("AirlineRank of an unknown carrier should sort last")
	}
	if AirlineRank("American") >= AirlineRank("United") {
		t.Error("AirlineRank should follow the enumeration order")
	}
}
