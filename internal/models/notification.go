package models

// BroadcastRecipient addresses every active subscriber on a channel.
const BroadcastRecipient = "todas"

// DispatchRequest is the fan-out wire shape. DestinatarioID is either a
// user id or "todas". Title and Message are alternatives; Type selects
// how the bot channel relays the content.
type DispatchRequest struct {
	DestinatarioID string `json:"destinatario_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Body           string `json:"body"`
	Type           string `json:"type"`
	URL            string `json:"url"`
}

// DisplayTitle resolves the title|message alternative.
func (r DispatchRequest) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Message
}

// Broadcast reports whether the request addresses all active subscribers.
func (r DispatchRequest) Broadcast() bool {
	return r.DestinatarioID == BroadcastRecipient
}

// DispatchResult aggregates per-channel delivery outcomes. A failed
// recipient lands in Errors and never aborts the rest of the batch.
type DispatchResult struct {
	Sent   int      `json:"sent"`
	Total  int      `json:"total"`
	Errors []string `json:"errors"`
}

// Merge folds another result into this one.
func (r *DispatchResult) Merge(other DispatchResult) {
	r.Sent += other.Sent
	r.Total += other.Total
	r.Errors = append(r.Errors, other.Errors...)
}

// PushPayload is the JSON document delivered on the browser push channel.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}
