package companies

import (
	"fmt"
	"strconv"
	"strings"
)

// SequencePrefix returns the "{prefix}{year}-" stem shared by every invoice
// number of a company in a calendar year.
func SequencePrefix(prefix string, year int) string {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return prefix + strconv.Itoa(year) + "-"
}

// ParseSequence extracts the trailing sequence of number when it carries stem.
func ParseSequence(number, stem string) (int, bool) {
	if !strings.HasPrefix(number, stem) {
		return 0, false
	}
	tail := number[strings.LastIndex(number, "-")+1:]
	if tail == "" {
		return 0, false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(tail)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// NextInvoiceNumber returns "{prefix}{year}-{seq:03d}" where seq is one past
// the largest sequence found in existing. Numbers that do not parse are ignored.
func NextInvoiceNumber(prefix string, year int, existing []string) string {
	stem := SequencePrefix(prefix, year)
	last := 0
	for _, number := range existing {
		if seq, ok := ParseSequence(number, stem); ok && seq > last {
			last = seq
		}
	}
	return fmt.Sprintf("%s%03d", stem, last+1)
}
