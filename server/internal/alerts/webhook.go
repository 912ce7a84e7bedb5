package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// deliver sends webhook notifications for a to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.post(url, slackPayload(a))
		case "teams":
			err = e.post(url, teamsPayload(a))
		case "pagerduty", "http":
			err = e.post(url, eventPayload(a))
		default:
			slog.Warn("alerts: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"rule", a.RuleName,
				"state", a.State,
			)
		}
	}
}

// headline is the one-line summary shared by the chat-style payloads, e.g.
// "lean-gas firing on station-north: hhv_kwh_m3 = 10.02 (rule: hhv_kwh_m3 < 10.28, profile: nn-158-13)".
func headline(a *Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s on %s", a.RuleName, a.State, a.SourceID)
	if a.Metric != "" {
		fmt.Fprintf(&b, ": %s = %.4g", a.Metric, a.Value)
	}
	fmt.Fprintf(&b, " (rule: %s", a.Condition)
	if a.Profile != "" {
		fmt.Fprintf(&b, ", profile: %s", a.Profile)
	}
	b.WriteString(")")
	return b.String()
}

func slackPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(a.Severity), headline(a)),
	})
	return body
}

func teamsPayload(a *Alert) []byte {
	facts := []map[string]string{
		{"name": "Source", "value": a.SourceID},
		{"name": "Rule", "value": a.Condition},
		{"name": "State", "value": a.State},
	}
	if a.Metric != "" {
		facts = append(facts, map[string]string{
			"name": "Reading", "value": fmt.Sprintf("%s = %.4g", a.Metric, a.Value),
		})
	}
	if a.Profile != "" {
		facts = append(facts, map[string]string{"name": "Profile", "value": a.Profile})
	}
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    headline(a),
		"title":      fmt.Sprintf("Gas quality alert: %s", a.RuleName),
		"sections":   []map[string]interface{}{{"facts": facts}},
	}
	body, _ := json.Marshal(payload)
	return body
}

// eventPayload is the generic JSON body for pagerduty/http targets: a flat
// event record rather than a wrapped Alert, so receivers can route on the
// rule, source, and profile without unpacking nested structures.
func eventPayload(a *Alert) []byte {
	ev := map[string]interface{}{
		"event":     "gas_quality_alert",
		"state":     a.State,
		"rule":      a.RuleName,
		"source_id": a.SourceID,
		"severity":  a.Severity,
		"condition": a.Condition,
		"value":     a.Value,
		"fired_at":  a.FiredAt.UTC().Format(time.RFC3339),
	}
	if a.Metric != "" {
		ev["metric"] = a.Metric
	}
	if a.Profile != "" {
		ev["profile"] = a.Profile
	}
	if a.ResolvedAt != nil {
		ev["resolved_at"] = a.ResolvedAt.UTC().Format(time.RFC3339)
	}
	body, _ := json.Marshal(ev)
	return body
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "E01E5A"
	case "warning":
		return "ECB22E"
	default:
		return "2EB67D"
	}
}
