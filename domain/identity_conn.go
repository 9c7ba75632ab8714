package domain

// ConnID identifies one transport-level link. A session may own several
// over its lifetime but at most one live at a time.
type ConnID string
