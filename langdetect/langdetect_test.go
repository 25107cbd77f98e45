package langdetect

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
		wantName string
	}{
		{"empty", "", AutoCode, AutoName},
		{"whitespace", "  \n\t", AutoCode, AutoName},
		{"polish", "Dzisiaj jest bardzo ładna pogoda, więc pójdziemy razem na długi spacer do parku.", "pl", "Polish"},
		{"english", "The weather is lovely today, so we are going for a long walk in the park together.", "en", "English"},
		{"german", "Heute ist das Wetter sehr schön, deshalb gehen wir zusammen im Park spazieren.", "de", "German"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, name := Detect(tt.text)
			if code != tt.wantCode || name != tt.wantName {
				t.Errorf("Detect(%q) = (%q, %q), want (%q, %q)", tt.text, code, name, tt.wantCode, tt.wantName)
			}
		})
	}
}
