package assetgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
)

const villagesPerDistrict = 5

type districtFeatureCollection struct {
	Features []struct {
		Properties struct {
			DtName string `json:"dtname"`
		} `json:"properties"`
	} `json:"features"`
}

// LoadDistricts reads a GeoJSON FeatureCollection and returns the unique,
// sorted district names found in properties.dtname. Any failure is logged and
// yields an empty list.
func LoadDistricts(r io.Reader) []string {
	names, err := parseDistricts(r)
	if err != nil {
		config.LogError(config.GetLogger(), "assetgen", "LoadDistricts", "decode district geojson", nil, err)
		return []string{}
	}
	return names
}

func parseDistricts(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	var fc districtFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, err
	}
	if fc.Features == nil {
		return nil, errors.New("missing features")
	}
	names := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if name := strings.TrimSpace(f.Properties.DtName); name != "" {
			names = append(names, name)
		}
	}
	names = utils.UniqueSlice(names)
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// LoadStateDistricts reads <dir>/<state>.json. A missing or malformed file
// yields an empty list.
func LoadStateDistricts(dir, state string) []string {
	logger := config.GetLogger()
	state = strings.TrimSpace(state)
	if state == "" {
		return []string{}
	}
	if strings.ContainsAny(state, `/\`) || strings.Contains(state, "..") {
		config.LogError(logger, "assetgen", "LoadStateDistricts", "reject state name", state, fmt.Errorf("invalid state %q", state))
		return []string{}
	}

	f, err := os.Open(filepath.Join(dir, state+".json"))
	if err != nil {
		config.LogError(logger, "assetgen", "LoadStateDistricts", "open district geojson", state, err)
		return []string{}
	}
	defer f.Close()
	return LoadDistricts(f)
}

// VillagesForDistrict returns the placeholder village names of a district.
func VillagesForDistrict(district string) []string {
	district = strings.TrimSpace(district)
	if district == "" {
		return []string{}
	}
	out := make([]string, 0, villagesPerDistrict)
	for i := 1; i <= villagesPerDistrict; i++ {
		out = append(out, fmt.Sprintf("%s Village %d", district, i))
	}
	return out
}
