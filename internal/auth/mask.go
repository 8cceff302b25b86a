package auth

// maskVisible is the number of characters left visible at each end
const maskVisible = 4

// Mask renders a redacted preview of a secret: the first and last four
// characters with an ellipsis between. Keys too short to keep a hidden
// middle render as the ellipsis alone.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 2*maskVisible {
		return "..."
	}
	return string(r[:maskVisible]) + "..." + string(r[len(r)-maskVisible:])
}
