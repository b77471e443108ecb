package calculator

import (
	"strings"
	"time"
)

// GenerateInvoiceNumber formats PPP-YYMMDD-HHMM where PPP is the first three
// characters of businessName, uppercased. Numbers generated for the same
// business within the same minute collide; callers needing uniqueness must
// space them out or append a suffix.
func GenerateInvoiceNumber(businessName string, now time.Time) string {
	prefix := []rune(businessName)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return strings.ToUpper(string(prefix)) + "-" + now.Format("060102") + "-" + now.Format("1504")
}
