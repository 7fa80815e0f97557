package models

// Status is the authoritative lifecycle state of a complaint. The values
// are user-facing strings; they appear verbatim in API payloads and emails.
type Status string

const (
	StatusRegistered       Status = "Registered"
	StatusInProgress       Status = "In Progress"
	StatusResolved         Status = "Resolved"
	StatusRejected         Status = "Rejected"
	StatusVerifiedComplete Status = "Verified Complete"
)

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusRegistered, StatusInProgress, StatusResolved, StatusRejected, StatusVerifiedComplete:
		return true
	}
	return false
}

// IsAdminAssignable reports whether an admin may select s as a target
// status. Verified Complete is reachable only through owner verification.
func (s Status) IsAdminAssignable() bool {
	return s.IsValid() && s != StatusVerifiedComplete
}

// VerificationStatus tracks the owner-review cycle alongside Status.
type VerificationStatus string

const (
	VerificationNotApplicable VerificationStatus = "Not Applicable"
	VerificationPending       VerificationStatus = "Pending Owner Review"
	VerificationFailed        VerificationStatus = "Verification Failed"
	VerificationComplete      VerificationStatus = "Verified Complete"
)
