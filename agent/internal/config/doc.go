// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent} — agent section parsed from YAML
//   - AgentConfig — server_endpoint, profile, scrape_interval, ship_interval,
//     buffer_size, sources [], server_auth
//   - Source — id, type (prometheus|json), endpoint, auth, tls
//   - AuthConfig — mode (mtls|apikey|bearer|basic|none), cert/key/ca files,
//     header, key_env, token_env, password_env; Key(), Token(), and Password()
//     resolve from environment variables
//
// Load(path) reads the YAML file, applies defaults (30s scrape, 15s ship,
// 1000 buffer), then validates required fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
