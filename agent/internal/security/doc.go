// Package security checks TLS certificate validity for each configured
// chromatograph endpoint. Expiring or expired certificates are surfaced in
// the agent log so operators can rotate them before scrapes start failing.
package security
