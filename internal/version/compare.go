package version

import (
	"regexp"
	"strconv"
	"strings"
)

var versionToken = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:[-+][0-9A-Za-z.]+|(?:a|b|rc|dev|post)\d*)?)`)

// Parse extracts the first version token from tool output such as
// "RapidKit Core 0.24.0". It returns "" when there is none.
func Parse(output string) string {
	m := versionToken.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}

// Compare orders two versions by numeric major.minor.patch. Missing
// components and components without leading digits count as 0; anything
// after the patch number is ignored. It returns -1, 0 or 1.
func Compare(a, b string) int {
	pa, pb := components(a), components(b)
	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

func components(v string) [3]int {
	var out [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	for i, part := range strings.SplitN(v, ".", 4) {
		if i >= len(out) {
			break
		}
		out[i] = leadingInt(part)
	}
	return out
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
