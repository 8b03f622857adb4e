package console

import "fmt"

// HumanSize formats a byte count as a human-readable string.
func HumanSize(n int64) string {
	const (
		KB = int64(1024)
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)
	switch {
	case n >= 1000*GB:
		return fmt.Sprintf("%.1fT", float64(n)/float64(TB))
	case n >= 1000*MB:
		return fmt.Sprintf("%.1fG", float64(n)/float64(GB))
	case n >= 1000*KB:
		return fmt.Sprintf("%.1fM", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.1fK", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
