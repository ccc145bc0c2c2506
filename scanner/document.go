package scanner

import (
	"encoding/json"
	"fmt"

	databasetypes "github.com/l3montree-dev/imagecatalog/database/types"
	"github.com/l3montree-dev/imagecatalog/normalize"
)

// Document is the subset of the syft-json format the catalog relies on.
type Document struct {
	Distro struct {
		PrettyName string `json:"prettyName"`
		ID         string `json:"id"`
		VersionID  string `json:"versionID"`
		VariantID  string `json:"variantID"`
	} `json:"distro"`
	Descriptor struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"descriptor"`
	Artifacts []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Type    string `json:"type"`
		Purl    string `json:"purl"`
	} `json:"artifacts"`

	// Raw is the complete document as it gets stored.
	Raw databasetypes.JSONB `json:"-"`
}

func ParseDocument(output []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(output, &doc); err != nil {
		return doc, fmt.Errorf("could not parse scanner output: %w", err)
	}
	raw, err := databasetypes.JSONBFromBytes(output)
	if err != nil {
		return doc, fmt.Errorf("scanner output is not a json object: %w", err)
	}
	doc.Raw = raw
	return doc, nil
}

func (d Document) Purls() []string {
	purls := make([]string, 0, len(d.Artifacts))
	for _, a := range d.Artifacts {
		purls = append(purls, a.Purl)
	}
	return normalize.UniqueIdentifiers(purls)
}

func (d Document) ScannedDistro() *normalize.ScannedDistro {
	if d.Distro.PrettyName == "" && d.Distro.ID == "" {
		return nil
	}
	return &normalize.ScannedDistro{
		PrettyName: d.Distro.PrettyName,
		ID:         d.Distro.ID,
		VersionID:  d.Distro.VersionID,
		VariantID:  d.Distro.VariantID,
	}
}
