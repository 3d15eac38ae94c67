// Package format renders invoice numbers from tenant templates.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// seqPadRe matches {SEQ} with an optional pad width, e.g. {SEQ4} -> 0042.
var seqPadRe = regexp.MustCompile(`\{SEQ(\d*)\}`)

// InvoiceNumber renders a template such as "INV-{YYYY}{MM}-{SEQ4}" for a
// reserved sequence value. Date tokens come from the issue date, so the
// rendered number always agrees with the (year, month) bucket the sequence
// was drawn from.
func InvoiceNumber(template string, issueDate time.Time, seq int64) string {
	issueDate = issueDate.UTC()

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", fmt.Sprintf("%04d", issueDate.Year()))
	out = strings.ReplaceAll(out, "{YY}", fmt.Sprintf("%02d", issueDate.Year()%100))
	out = strings.ReplaceAll(out, "{MM}", fmt.Sprintf("%02d", int(issueDate.Month())))
	out = strings.ReplaceAll(out, "{DD}", fmt.Sprintf("%02d", issueDate.Day()))

	out = seqPadRe.ReplaceAllStringFunc(out, func(token string) string {
		width := 0
		if digits := seqPadRe.FindStringSubmatch(token)[1]; digits != "" {
			width, _ = strconv.Atoi(digits)
		}
		if width <= 0 {
			return strconv.FormatInt(seq, 10)
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	return out
}
