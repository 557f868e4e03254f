package server

import "fmt"

// displayServerInfo prints the startup banner: routes plus the effective
// auth, size-limit, and rate-limit settings.
func (s *Server) displayServerInfo() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                    - Health check")
	fmt.Println("  GET    /stats                                     - Server statistics")
	fmt.Println("  POST   /analyze                                   - One-shot resume analysis")
	fmt.Println("  POST   /sessions                                  - Create an analysis session")
	fmt.Println("  GET    /sessions/{id}                             - Get session state")
	fmt.Println("  DELETE /sessions/{id}                             - Delete a session")
	fmt.Println("  POST   /sessions/{id}/reanalyze                   - Reanalyze the working document")
	fmt.Println("  POST   /sessions/{id}/suggestions/{sid}/adopt     - Adopt a suggestion")
	fmt.Println("  POST   /sessions/{id}/suggestions/{sid}/ignore    - Ignore a suggestion")
	fmt.Println("  POST   /sessions/{id}/suggestions/{sid}/modify    - Modify a suggestion")
	fmt.Println("  POST   /sessions/{id}/suggestions/{sid}/apply     - Apply a suggestion patch")

	switch {
	case s.authEnabled():
		fmt.Println("API authentication: ENABLED")
		fmt.Println("Send 'X-API-Key: <your-key>' with requests to API endpoints")
	default:
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n",
			s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
