package layout

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/dargueta/flatfat/errors"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed geometries.csv
var geometriesRawCSV string
var predefinedGeometries map[string]Geometry

// GetPredefinedGeometry returns the geometry registered under `slug`.
func GetPredefinedGeometry(slug string) (Geometry, error) {
	geometry, ok := predefinedGeometries[slug]
	if ok {
		return geometry, nil
	}

	return Geometry{}, errors.ErrNotFound.WithMessage(
		fmt.Sprintf("no predefined geometry exists with slug %q", slug))
}

// PredefinedGeometries returns all predefined geometries, sorted by slug.
func PredefinedGeometries() []Geometry {
	all := make([]Geometry, 0, len(predefinedGeometries))
	for _, geometry := range predefinedGeometries {
		all = append(all, geometry)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	return all
}

// LoadGeometryFile reads a geometry from a YAML document. The result is
// validated before it's returned.
func LoadGeometryFile(fs afero.Fs, path string) (Geometry, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Geometry{}, errors.ErrIOFailed.Wrap(err)
	}
	return ParseGeometryYAML(raw)
}

// ParseGeometryYAML decodes and validates a geometry from YAML. Fields not given
// in the document are taken from [Default].
func ParseGeometryYAML(raw []byte) (Geometry, error) {
	geometry := Default
	geometry.Slug = ""
	geometry.Name = ""

	err := yaml.Unmarshal(raw, &geometry)
	if err != nil {
		return Geometry{}, errors.ErrInvalidArgument.Wrap(err)
	}

	err = geometry.Validate()
	if err != nil {
		return Geometry{}, err
	}
	return geometry, nil
}

func init() {
	csvReader := csv.NewReader(strings.NewReader(geometriesRawCSV))
	csvReader.Comma = '|'

	var rows []Geometry
	err := gocsv.UnmarshalCSV(csvReader, &rows)
	if err != nil {
		panic(fmt.Errorf("failed to decode predefined geometries: %w", err))
	}

	predefinedGeometries = make(map[string]Geometry, len(rows))
	for i, row := range rows {
		_, exists := predefinedGeometries[row.Slug]
		if exists {
			panic(
				fmt.Errorf(
					"duplicate definition for geometry %q found on row %d", row.Slug, i+1))
		}
		if err := row.Validate(); err != nil {
			panic(fmt.Errorf("predefined geometry %q is invalid: %w", row.Slug, err))
		}
		predefinedGeometries[row.Slug] = row
	}
}
