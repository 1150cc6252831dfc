package docproc

import (
	"strings"
	"testing"
)

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "tour announcement",
			text: "The band kicks off their 2025 world tour with a concert at the arena. Tickets on sale Friday.",
			want: true,
		},
		{
			name: "keywords but no target year",
			text: "The band played a legendary concert at the arena in 2019, tickets sold out.",
			want: false,
		},
		{
			name: "year but too few keywords",
			text: "Quarterly earnings for 2025 exceeded expectations.",
			want: false,
		},
		{
			name: "2026 season",
			text: "Festival lineup for 2026: the headliner takes the stage after the opening act.",
			want: true,
		},
		{
			name: "case insensitive",
			text: "CONCERT TOUR 2025: VENUE AND TICKET details inside.",
			want: true,
		},
		{
			name: "empty",
			text: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRelevant(tt.text); got != tt.want {
				t.Errorf("IsRelevant(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTourDates(t *testing.T) {
	text := `Spring leg announced today.
January 15, 2025 - Madison Square Garden, New York
February 2, 2025 - The Forum, Los Angeles
Support acts to be confirmed.
March 10 2026 - Wembley Stadium, London`

	dates := ExtractTourDates(text)
	if len(dates) != 3 {
		t.Fatalf("Expected 3 tour dates, got %d: %v", len(dates), dates)
	}

	first := dates[0]
	if first.Date != "January 15, 2025" {
		t.Errorf("Expected date 'January 15, 2025', got %q", first.Date)
	}
	if first.Venue != "Madison Square Garden" {
		t.Errorf("Expected venue 'Madison Square Garden', got %q", first.Venue)
	}
	if first.City != "New York" {
		t.Errorf("Expected city 'New York', got %q", first.City)
	}

	// Comma after the day is optional
	if dates[2].Date != "March 10 2026" {
		t.Errorf("Expected date 'March 10 2026', got %q", dates[2].Date)
	}
	if dates[2].City != "London" {
		t.Errorf("Expected city 'London', got %q", dates[2].City)
	}
}

func TestExtractTourDates_None(t *testing.T) {
	if dates := ExtractTourDates("No schedule information here."); len(dates) != 0 {
		t.Errorf("Expected no dates, got %v", dates)
	}
}

func TestCaption_FromTourDates(t *testing.T) {
	text := `January 15, 2025 - Madison Square Garden, New York
February 2, 2025 - The Forum, Los Angeles`

	caption := Caption(text)
	if !strings.Contains(caption, "2 tour dates") {
		t.Errorf("Expected date count in caption, got %q", caption)
	}
	if !strings.Contains(caption, "Madison Square Garden") {
		t.Errorf("Expected first venue in caption, got %q", caption)
	}
}

func TestCaption_SingleDate(t *testing.T) {
	caption := Caption("June 1, 2025 - Red Rocks, Denver")
	if !strings.HasPrefix(caption, "1 tour date:") {
		t.Errorf("Expected singular phrasing, got %q", caption)
	}
}

func TestCaption_FirstSentenceFallback(t *testing.T) {
	caption := Caption("The quartet returns after a decade away. Fans have waited a long time.")
	if caption != "The quartet returns after a decade away" {
		t.Errorf("Expected first sentence, got %q", caption)
	}
}

func TestCaption_Truncation(t *testing.T) {
	caption := Caption(strings.Repeat("word ", 100))
	if len(caption) > maxCaptionLen {
		t.Errorf("Caption too long: %d chars", len(caption))
	}
	if !strings.HasSuffix(caption, "...") {
		t.Errorf("Expected ellipsis on truncated caption, got %q", caption)
	}
}
