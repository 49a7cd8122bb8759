package types

import (
	"errors"
	"strings"
)

// PartIdentification — result of the part-finder flow (PART.response.v1).
type PartIdentification struct {
	PartName          string   `json:"partName"`
	ModelNumber       string   `json:"modelNumber,omitempty"`
	Description       string   `json:"description"`
	PurchaseLocations []string `json:"purchaseLocations"`
	InstallationVideo string   `json:"installationVideo,omitempty"`
}

func (p *PartIdentification) Validate() error {
	if strings.TrimSpace(p.PartName) == "" {
		return errors.New("part: empty part name")
	}
	if strings.TrimSpace(p.Description) == "" {
		return errors.New("part: empty description")
	}
	return nil
}
