package models

import (
	"strings"

	dErrors "metrologi/pkg/domain-errors"
)

// Kind distinguishes first-time calibration from periodic re-calibration.
type Kind string

const (
	KindNewCalibration Kind = "new_calibration"
	KindRecalibration  Kind = "recalibration"
)

// Legacy column values written by the public submission form.
const (
	legacyNewCalibration = "tera_baru"
	legacyRecalibration  = "tera_ulang"
)

// AllKinds lists every request kind.
var AllKinds = []Kind{KindNewCalibration, KindRecalibration}

// ParseKind accepts both the canonical values and the legacy column values.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(KindNewCalibration), legacyNewCalibration:
		return KindNewCalibration, nil
	case string(KindRecalibration), legacyRecalibration:
		return KindRecalibration, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown request kind: "+raw)
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	return k == KindNewCalibration || k == KindRecalibration
}

// LegacyValue is the value stored in the jenis_permohonan column.
func (k Kind) LegacyValue() string {
	if k == KindRecalibration {
		return legacyRecalibration
	}
	return legacyNewCalibration
}

// Label is the human-readable name shown to admins.
func (k Kind) Label() string {
	if k == KindRecalibration {
		return "Tera Ulang"
	}
	return "Tera Baru"
}
