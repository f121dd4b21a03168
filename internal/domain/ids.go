package domain

// ExternalID is the opaque identity string issued by the external identity
// provider (the "clerk_user_id" on the wire). Its format is controlled by the
// issuer; the core never inspects or verifies it.
type ExternalID string

// UserID is an internal identifier for a user record.
type UserID string

// GroupID is an internal identifier for an interest group record.
type GroupID string

// ApplicationID is an internal identifier for a group application record.
type ApplicationID string
