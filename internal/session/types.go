package session

// KeysRequest is the JSON body for POST /sessions/{id}/keys. Each entry is a
// button glyph or key name ("7", "+", "×", "=", "AC", "backspace", ...).
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// KeysResponse is the JSON response for POST /sessions/{id}/keys.
type KeysResponse struct {
	Snapshot
	Steps []Step `json:"steps"`
}

// SoundResponse is the JSON response for POST /sessions/{id}/sound.
type SoundResponse struct {
	ID    string `json:"id"`
	Muted bool   `json:"muted"`
}
