package spotify

// Track is a catalog track reduced to the fields the sync flows use.
type Track struct {
	ID      string
	URI     string
	Name    string
	Artists []string // In credit order; may be empty
}

// TrackItem is one slot of a saved-tracks or playlist collection.
// AddedAt is the raw RFC 3339 timestamp the collection reports for the slot.
type TrackItem struct {
	Track   *Track
	AddedAt string
}

// Artist is a followed artist.
type Artist struct {
	ID   string
	Name string
}

// Album is an album or single from an artist's discography.
// ReleaseDate is YYYY, YYYY-MM or YYYY-MM-DD depending on its precision.
type Album struct {
	ID          string
	Name        string
	ReleaseDate string
}

// Playlist identifies one of the current user's playlists.
type Playlist struct {
	ID   string
	Name string
}
