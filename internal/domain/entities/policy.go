package entities

import "time"

// Policy represents a corporate insurance policy from policy_master. The sync
// core only reads policies and performs one mutation: bulk deactivation of
// expired-but-still-active rows before any adapter runs.
type Policy struct {
	ID            int64     `json:"id"`
	PolicyNumber  string    `json:"policy_number"`
	TPAID         int       `json:"tpa_id"`
	InsurerID     int       `json:"ins_id"`
	IsActive      bool      `json:"is_active"`
	PolicyEndDate time.Time `json:"policy_end_date"`
}

// Expired reports whether the policy has ended as of the given instant.
func (p *Policy) Expired(asOf time.Time) bool {
	return p.PolicyEndDate.Before(asOf)
}
