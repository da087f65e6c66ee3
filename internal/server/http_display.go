package server

// displayServerInfo logs the effective server configuration.
func (s *Server) displayServerInfo() {
	s.Logger.Info("Server configuration",
		"ai_providers", s.ai.Priority(),
		"storage_providers", s.storage.Priority(),
		"tls_mode", s.TLSConfig.Mode)

	if len(s.APIKeys) > 0 {
		s.Logger.Info("API authentication enabled", "keys", len(s.APIKeys))
	} else {
		s.Logger.Warn("API authentication disabled, API endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		s.Logger.Info("Request size limit enabled", "bytes", s.MaxRequestSize)
	} else {
		s.Logger.Warn("No request size limit configured")
	}

	if s.RateLimiter != nil {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_api_key", s.RateLimit.ByAPIKey,
			"by_ip", s.RateLimit.ByIP)
	} else {
		s.Logger.Warn("Rate limiting disabled")
	}
}
