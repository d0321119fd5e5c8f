package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrVillageRequired = errors.New("village is required")

// LocationKey identifies one selection. Only a key with a village is a full pick.
type LocationKey struct {
	State    string `json:"state" form:"state"`
	District string `json:"district" form:"district"`
	Village  string `json:"village" form:"village"`
}

func (l LocationKey) Normalize() LocationKey {
	return LocationKey{
		State:    strings.TrimSpace(l.State),
		District: strings.TrimSpace(l.District),
		Village:  strings.TrimSpace(l.Village),
	}
}

func (l LocationKey) IsFullPick() bool {
	return strings.TrimSpace(l.Village) != ""
}

func (l LocationKey) Validate() error {
	if !l.IsFullPick() {
		return ErrVillageRequired
	}
	return nil
}

// CacheKey is the redis key of the latest record published for this location.
func (l LocationKey) CacheKey() string {
	n := l.Normalize()
	return fmt.Sprintf("asset:%s:%s:%s", strings.ToLower(n.State), strings.ToLower(n.District), strings.ToLower(n.Village))
}

func (l LocationKey) String() string {
	n := l.Normalize()
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Village, n.District, n.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
