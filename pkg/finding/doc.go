// Package finding provides the closed severity enum shared by the
// normalizer, the layout engine and the event stream.
//
// Severities are normalized once, at ingestion, with Parse. Every later
// lookup (colours, labels, ordering) switches on the enum value, so no
// lookup site ever compares raw upstream strings.
//
// Usage:
//
//	sev := finding.Parse(raw["severity"])
//	r, g, b := sev.Color().RGB()
package finding
