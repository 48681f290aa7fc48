package todo

// SourceRef points at a message a todo was extracted from.
type SourceRef struct {
	SourceID   string `json:"source_id"`
	MessageRef string `json:"message_ref"`
}

// Identity returns the stable identity used for ref deduplication.
func (r SourceRef) Identity() string {
	return r.SourceID + "/" + r.MessageRef
}
