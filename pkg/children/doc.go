// Package children implements the post-job child artifact pipeline:
// discovering files an agent wrote under an image's output roots,
// filtering them against the image's regex rules, attaching
// provenance, selecting submission groups, and submitting with a
// fixed fan-out of 10 concurrent requests where a 409 conflict counts
// as success.
package children
