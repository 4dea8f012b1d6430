package entity

// Platform describes a protocol a plugin reads positions from.
type Platform struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}
