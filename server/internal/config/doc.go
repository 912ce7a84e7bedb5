// Package config loads the server-side configuration from the `server:`
// section of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort                 — REST API + ingest + WebSocket port (default 8080)
//   - Auth.Mode                — "apikey" or "none"
//   - Auth.KeyEnv              — environment variable holding the expected API key
//   - Auth.Header              — HTTP header name (default "x-api-key")
//   - Analysis.TTL             — how long a source analysis stays live (default 15m)
//   - Analysis.Tolerance       — mole-fraction sum tolerance (default 1e-6)
//   - Analysis.DefaultProfile  — regulatory profile used when none selected
//   - Broadcast                — WebSocket push interval (default 5s)
//   - Profiles                 — extra regulatory profiles merged over builtins
//   - Alerts                   — rule definitions and webhook targets
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
