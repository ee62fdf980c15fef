package entities

// HospitalRow is one denormalized row destined for a TPA-specific hospital
// table. Each TPA keeps its own native field set, so rows are column maps
// rather than a shared struct: the eight response schemas differ in real data
// content (e.g. ROHINIID vs ROHINI_ID vs rohinI_CODE), not just naming.
type HospitalRow map[string]interface{}

// AccessToken is an ephemeral credential obtained at adapter-run start (or
// per page for Care). Held in adapter-local memory only, never persisted.
type AccessToken struct {
	Value     string
	SessionID string
}

// RunResult is the outcome of one adapter run.
type RunResult struct {
	Inserted int
	Skipped  int
}
