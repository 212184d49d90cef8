package mikrotik

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseDuration converts RouterOS compact durations ("2d3h4m5s", "1w6h",
// "45s") to seconds. Units absent from the string contribute zero. Anything
// that does not scan as number+unit pairs yields 0, never an error.
func ParseDuration(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var total int64
	num := int64(-1)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			if num < 0 {
				num = 0
			}
			num = num*10 + int64(ch-'0')
		case ch == 'w' || ch == 'd' || ch == 'h' || ch == 'm' || ch == 's':
			if num < 0 {
				return 0
			}
			switch ch {
			case 'w':
				total += num * 7 * 86400
			case 'd':
				total += num * 86400
			case 'h':
				total += num * 3600
			case 'm':
				total += num * 60
			case 's':
				total += num
			}
			num = -1
		default:
			return 0
		}
	}
	if num >= 0 {
		// trailing number without a unit
		return 0
	}
	return total
}

var bytesRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]?i?B?)$`)

// ParseBytes converts a RouterOS byte counter to an absolute byte count.
// Accepts plain integers and human-readable suffixes ("1.5MiB", "2GB").
func ParseBytes(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	m := bytesRe.FindStringSubmatch(s)
	if m == nil {
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "KB", "KIB":
		val *= 1 << 10
	case "MB", "MIB":
		val *= 1 << 20
	case "GB", "GIB":
		val *= 1 << 30
	case "TB", "TIB":
		val *= 1 << 40
	}
	return int64(val)
}
