package models

import (
	"time"

	dErrors "metrologi/pkg/domain-errors"
)

// ServiceRequest is one applicant submission (permohonan).
//
// Invariants:
//   - Status starts at pending and never returns to pending
//   - ProcessedAt and AdminNote are nil iff Status == pending
//   - Transitions follow Status.CanTransitionTo; approved and rejected are terminal
//   - ID and SubmittedAt are assigned by the store and never change
type ServiceRequest struct {
	ID                 int64      `json:"id"`
	ApplicantName      string     `json:"nama_pemohon"`
	Email              string     `json:"email"`
	Phone              string     `json:"telepon"`
	Address            string     `json:"alamat"`
	Kind               Kind       `json:"jenis_permohonan"`
	EquipmentType      string     `json:"jenis_alat"`
	EquipmentBrand     string     `json:"merek_alat"`
	Capacity           string     `json:"kapasitas"`
	ManufactureYear    *int       `json:"tahun_pembuatan,omitempty"`
	Status             Status     `json:"status"`
	SubmittedAt        time.Time  `json:"tanggal_permohonan"`
	ProcessedAt        *time.Time `json:"tanggal_diproses,omitempty"`
	AdminNote          *string    `json:"catatan_admin,omitempty"`
	SupportingDocument *string    `json:"dokumen_pendukung,omitempty"`
}

// IsProcessed reports whether an admin has acted on the request.
func (r *ServiceRequest) IsProcessed() bool {
	return r.Status != StatusPending
}

// CheckInvariants validates the processed-field invariant.
func (r *ServiceRequest) CheckInvariants() error {
	if !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid status")
	}
	if !r.Kind.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid request kind")
	}
	processedFieldsSet := r.ProcessedAt != nil && r.AdminNote != nil
	processedFieldsUnset := r.ProcessedAt == nil && r.AdminNote == nil
	if r.Status == StatusPending && !processedFieldsUnset {
		return dErrors.New(dErrors.CodeInvariantViolation, "pending request cannot carry processed fields")
	}
	if r.Status != StatusPending && !processedFieldsSet {
		return dErrors.New(dErrors.CodeInvariantViolation, "processed request requires processed_at and admin note")
	}
	return nil
}

// CanProcess checks if the request may move to next.
// Returns nil if the transition is valid, or an error if not allowed.
func (r *ServiceRequest) CanProcess(next Status) error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "request is already "+r.Status.String())
	}
	if !r.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot move request from "+r.Status.String()+" to "+next.String())
	}
	return nil
}

// ApplyProcess writes status, processed_at and admin note together.
// Must only be called after CanProcess returns nil.
func (r *ServiceRequest) ApplyProcess(u ProcessUpdate) {
	processedAt := u.ProcessedAt
	note := u.AdminNote
	r.Status = u.Status
	r.ProcessedAt = &processedAt
	r.AdminNote = &note
}

// Clone returns a deep copy so snapshots never share pointers with stores.
func (r ServiceRequest) Clone() ServiceRequest {
	out := r
	if r.ManufactureYear != nil {
		v := *r.ManufactureYear
		out.ManufactureYear = &v
	}
	if r.ProcessedAt != nil {
		v := *r.ProcessedAt
		out.ProcessedAt = &v
	}
	if r.AdminNote != nil {
		v := *r.AdminNote
		out.AdminNote = &v
	}
	if r.SupportingDocument != nil {
		v := *r.SupportingDocument
		out.SupportingDocument = &v
	}
	return out
}

// ProcessUpdate is the field set written atomically by a process action.
type ProcessUpdate struct {
	Status      Status    `json:"status"`
	ProcessedAt time.Time `json:"tanggal_diproses"`
	AdminNote   string    `json:"catatan_admin"`
}

// ProcessResult is the outcome of a process action the store accepted.
// Applied holds the values written. Request is the row from the reloaded
// snapshot; it is nil when Reloaded is false and the previous snapshot is
// still shown.
type ProcessResult struct {
	Applied  ProcessUpdate   `json:"applied"`
	Reloaded bool            `json:"reloaded"`
	Request  *ServiceRequest `json:"request,omitempty"`
}

// NewProcessUpdate validates the requested status before any store call.
func NewProcessUpdate(status Status, note string, now time.Time) (ProcessUpdate, error) {
	if status == "" {
		return ProcessUpdate{}, dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if !status.IsProcessTarget() {
		return ProcessUpdate{}, dErrors.New(dErrors.CodeValidation, "status must be one of processing, approved, rejected")
	}
	return ProcessUpdate{Status: status, ProcessedAt: now, AdminNote: note}, nil
}
