package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

// Document number templates. Sequences restart each year for the templates
// carrying {YYYY}.
const (
	InvoiceNumberTemplate   = "FAC-{YYYY}-{SEQ5}"
	PaymentNumberTemplate   = "PAY-{YYYY}-{SEQ5}"
	ComplaintNumberTemplate = "PLA-{YYYY}-{SEQ5}"
	ReadingNumberTemplate   = "REL-{YYYY}-{SEQ5}"
	ClientNumberTemplate    = "CLI-{SEQ6}"
)

// FormatNumber renders a human-facing document number from a template, the
// issue time and a monotonic sequence. It is pure.
func FormatNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid sequence: %d", seq)
	}

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in number format: %s", out)
	}
	return out, nil
}

// SequenceKey names the counter a template draws from at issuedAt.
func SequenceKey(template string, issuedAt time.Time) string {
	prefix, _, _ := strings.Cut(template, "-")
	if strings.Contains(template, "{YYYY}") {
		return prefix + "-" + issuedAt.Format("2006")
	}
	return prefix
}
