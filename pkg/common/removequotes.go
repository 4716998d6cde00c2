package common

import "strings"

// RemoveQuotesIfAny strips one pair of matching single or double quotes around the string.
// Sometimes, a model returns its answer as "'a plate of pasta'" or "\"a plate of pasta\"".
func RemoveQuotesIfAny(str string) string {
	str = strings.TrimSpace(str)
	if len(str) < 2 {
		return str
	}
	first, last := str[0], str[len(str)-1]
	if (first == '\'' || first == '"') && first == last {
		return strings.TrimSpace(str[1 : len(str)-1])
	}
	return str
}
