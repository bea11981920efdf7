package simapi

const (
	// Base URL
	DefaultBaseURL = "http://localhost:5001"

	// API Endpoints, relative to /api/{league}
	DrafteesEndpoint   = "/draftees"
	TeamsEndpoint      = "/teams"
	DraftPicksEndpoint = "/draftpicks"

	// Headers
	APIKeyHeader = "X-Sim-Api-Key"
)
