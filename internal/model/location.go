package model

// Location is a pickup or return branch.
type Location struct {
    ID      uint64 `json:"id"`
    Name    string `json:"name"`
    City    string `json:"city"`
    Address string `json:"address,omitempty"`
}
