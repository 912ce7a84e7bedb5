// Package alerts implements the rule evaluation engine and webhook delivery
// for gaswatch alerting. Rules are evaluated against incoming gas quality
// analyses; webhooks are delivered to Teams, Slack, PagerDuty, or generic
// HTTP targets.
package alerts
