package library

import (
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

func TestFuzzyKey(t *testing.T) {
	tests := []struct {
		artist string
		name   string
		want   string
	}{
		{"Test Artist", "Test Track", "test artist|||test track"},
		{"A", "N", "a|||n"},
		{"", "", "|||"},
		{"Sigur Rós", "Hoppípolla", "sigur rós|||hoppípolla"},
	}

	for _, tt := range tests {
		if got := FuzzyKey(tt.artist, tt.name); got != tt.want {
			t.Errorf("FuzzyKey(%q, %q) = %q, want %q", tt.artist, tt.name, got, tt.want)
		}
	}
}

func TestFuzzyKey_CaseInsensitive(t *testing.T) {
	pairs := [][2]string{
		{"Radiohead", "Paranoid Android"},
		{"Beyoncé", "Déjà Vu"},
		{"Die Ärzte", "Schrei nach Liebe"},
		{"MØ", "Final Song"},
	}

	for _, p := range pairs {
		artist, name := p[0], p[1]
		lower := FuzzyKey(artist, name)
		upper := FuzzyKey(strings.ToUpper(artist), strings.ToUpper(name))
		if lower != upper {
			t.Errorf("FuzzyKey(%q, %q) = %q, upper-cased = %q", artist, name, lower, upper)
		}
	}
}

func TestNormalize(t *testing.T) {
	added := time.Date(2026, 1, 28, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		track      *spotify.Track
		addedAt    string
		wantNil    bool
		wantArtist string
		wantKey    string
		wantAdded  *time.Time
	}{
		{
			name:       "valid track",
			track:      &spotify.Track{URI: "spotify:track:123", Name: "Test Track", Artists: []string{"Test Artist"}},
			addedAt:    "2026-01-28T13:00:00Z",
			wantArtist: "Test Artist",
			wantKey:    "test artist|||test track",
			wantAdded:  &added,
		},
		{
			name:       "first artist only",
			track:      &spotify.Track{URI: "spotify:track:456", Name: "Collab", Artists: []string{"Lead", "Feature"}},
			addedAt:    "2026-01-28T13:00:00Z",
			wantArtist: "Lead",
			wantKey:    "lead|||collab",
			wantAdded:  &added,
		},
		{
			name:       "no artists uses sentinel",
			track:      &spotify.Track{URI: "spotify:track:789", Name: "Mystery"},
			addedAt:    "2026-01-28T13:00:00Z",
			wantArtist: UnknownArtist,
			wantKey:    "unknown|||mystery",
			wantAdded:  &added,
		},
		{
			name:       "missing date",
			track:      &spotify.Track{URI: "spotify:track:1", Name: "N", Artists: []string{"A"}},
			wantArtist: "A",
			wantKey:    "a|||n",
		},
		{
			name:       "malformed date",
			track:      &spotify.Track{URI: "spotify:track:1", Name: "N", Artists: []string{"A"}},
			addedAt:    "not-a-valid-timestamp",
			wantArtist: "A",
			wantKey:    "a|||n",
		},
		{
			name:    "nil track",
			track:   nil,
			addedAt: "2026-01-28T13:00:00Z",
			wantNil: true,
		},
		{
			name:    "missing uri",
			track:   &spotify.Track{Name: "Local File", Artists: []string{"A"}},
			addedAt: "2026-01-28T13:00:00Z",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.track, tt.addedAt)

			if tt.wantNil {
				if got != nil {
					t.Errorf("Normalize() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Normalize() = nil, want record")
			}
			if got.URI != tt.track.URI {
				t.Errorf("URI = %q, want %q", got.URI, tt.track.URI)
			}
			if got.Artist != tt.wantArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.wantArtist)
			}
			if got.FuzzyKey != tt.wantKey {
				t.Errorf("FuzzyKey = %q, want %q", got.FuzzyKey, tt.wantKey)
			}
			switch {
			case tt.wantAdded == nil && got.AddedAt != nil:
				t.Errorf("AddedAt = %v, want nil", got.AddedAt)
			case tt.wantAdded != nil && (got.AddedAt == nil || !got.AddedAt.Equal(*tt.wantAdded)):
				t.Errorf("AddedAt = %v, want %v", got.AddedAt, tt.wantAdded)
			}
		})
	}
}
