package registry

import "obra-patrimonio/internal/models"

// StatusLabels are the status values a movement writes onto the asset.
type StatusLabels struct {
	Available string
	External  string
}

// LabelsFor resolves the labels of site, preferring its own overrides.
func LabelsFor(site models.Site, defaults StatusLabels) StatusLabels {
	labels := defaults
	if site.AvailableStatus != "" {
		labels.Available = site.AvailableStatus
	}
	if site.ExternalStatus != "" {
		labels.External = site.ExternalStatus
	}
	return labels
}

// ApplyMovement returns the asset status after a movement of the given kind.
// The previous status does not matter.
func ApplyMovement(current string, kind models.MovementType, labels StatusLabels) (string, error) {
	switch kind {
	case models.MovementEntry:
		return labels.Available, nil
	case models.MovementExit:
		return labels.External, nil
	default:
		return current, &ValidationError{Fields: []string{"type"}}
	}
}
