package common

// IsStringInSlice returns true if string `str` is found in `slice`.
func IsStringInSlice(str string, slice []string) bool {
	return IndexOfString(str, slice) != -1
}

// IndexOfString returns the position of the first occurrence of `str` in `slice`, or -1.
func IndexOfString(str string, slice []string) int {
	for i, s := range slice {
		if str == s {
			return i
		}
	}
	return -1
}
