package audit

import "time"

// Action names an audited admin action.
type Action string

const (
	ActionAdminLogin          Action = "admin_login"
	ActionAdminLoginFailed    Action = "admin_login_failed"
	ActionAdminLogout         Action = "admin_logout"
	ActionPermohonanProcessed Action = "permohonan_processed"
	ActionPermohonanFailed    Action = "permohonan_process_failed"
	ActionPelakuUsahaCreated  Action = "pelaku_usaha_created"
	ActionPelakuUsahaUpdated  Action = "pelaku_usaha_updated"
	ActionPelakuUsahaDeleted  Action = "pelaku_usaha_deleted"
	ActionArtikelCreated      Action = "artikel_created"
	ActionArtikelUpdated      Action = "artikel_updated"
	ActionArtikelDeleted      Action = "artikel_deleted"
	ActionArtikelPublished    Action = "artikel_published"
	ActionExpiryScanCompleted Action = "expiry_scan_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    Action            `json:"action"`
	Actor     string            `json:"actor,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
