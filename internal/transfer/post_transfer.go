package transfer

// PostCreation is the create-post request body. ScheduledFor is optional;
// empty means the post stays a draft. The value may be RFC 3339 (with
// zone) or a bare "2006-01-02T15:04" wall time.
type PostCreation struct {
	Content      string `json:"content"`
	ScheduledFor string `json:"scheduled_for"`
}

type ThreadCreation struct {
	Contents     []string `json:"contents"`
	ScheduledFor string   `json:"scheduled_for"`
}

type PostUpdate struct {
	ID           int64  `json:"id"`
	Content      string `json:"content"`
	ScheduledFor string `json:"scheduled_for"`
}

type DeviceRegistration struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
	DeviceID string `json:"device_id"`
}
