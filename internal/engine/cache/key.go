package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// KeyParams identifies one report query.
type KeyParams struct {
	Operation string `json:"operation"`
	UserID    string `json:"user_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	// Revision is the store's revision for the user when the report was built.
	Revision int64 `json:"revision"`
	// Factors fingerprints the emission factors in effect.
	Factors map[string]float64 `json:"factors,omitempty"`
}

// GenerateKey returns the hex SHA-256 of the normalized params.
func GenerateKey(p KeyParams) (string, error) {
	norm := struct {
		Operation string      `json:"operation"`
		UserID    string      `json:"user_id"`
		From      string      `json:"from"`
		To        string      `json:"to"`
		Revision  int64       `json:"revision"`
		Factors   [][2]string `json:"factors"`
	}{
		Operation: strings.ToLower(strings.TrimSpace(p.Operation)),
		UserID:    strings.TrimSpace(p.UserID),
		From:      p.From,
		To:        p.To,
		Revision:  p.Revision,
	}
	names := make([]string, 0, len(p.Factors))
	for name := range p.Factors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		norm.Factors = append(norm.Factors, [2]string{name, fmt.Sprintf("%g", p.Factors[name])})
	}

	data, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
