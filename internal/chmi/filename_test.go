package chmi

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
		wantErr  bool
	}{
		{
			name:     "composite filename",
			filename: "T_PABV23_C_OKPR_20240601123000.hdf",
			want:     time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "full path",
			filename: "/data/maxz/T_PABV23_C_OKPR_20240601123000.hdf",
			want:     time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "no timestamp",
			filename: "readme.txt",
			wantErr:  true,
		},
		{
			name:     "short digits",
			filename: "composite_2024.hdf",
			wantErr:  true,
		},
		{
			name:     "non-digit timestamp",
			filename: "composite_2024060112300x.hdf",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseProductName(t *testing.T) {
	wantTS := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filename  string
		wantScore float64
		hasScore  bool
		wantErr   bool
	}{
		{
			name:      "score suffix",
			filename:  "T_PABV23_C_OKPR_20240601123000_0.123.png",
			wantScore: 0.123,
			hasScore:  true,
		},
		{
			name:     "legacy without score",
			filename: "T_PABV23_C_OKPR_20240601123000.png",
			hasScore: false,
		},
		{
			name:     "unparseable score treated as missing",
			filename: "T_PABV23_C_OKPR_20240601123000_final.png",
			hasScore: false,
		},
		{
			name:     "no timestamp",
			filename: "legend.png",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, score, hasScore, err := ParseProductName(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProductName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !ts.Equal(wantTS) {
				t.Errorf("timestamp = %v, want %v", ts, wantTS)
			}
			if hasScore != tt.hasScore {
				t.Errorf("hasScore = %v, want %v", hasScore, tt.hasScore)
			}
			if hasScore && score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}
