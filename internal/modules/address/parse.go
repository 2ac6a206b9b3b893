package address

import "strings"

// ParseAddresses splits a raw message into address strings. Delimiters are
// tried in order: "##", ",", newlines; otherwise the whole message is one address.
func ParseAddresses(message string) []string {
	switch {
	case strings.Contains(message, "##"):
		return trimAll(strings.Split(message, "##"))
	case strings.Contains(message, ","):
		return trimAll(strings.Split(message, ","))
	case strings.Contains(message, "\n"):
		var out []string
		for _, line := range strings.Split(message, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	}
	return []string{message}
}

func trimAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
