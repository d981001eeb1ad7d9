package fingerprint

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

var addressParser = &mail.AddressParser{WordDecoder: wordDecoder}

// normalizeAddresses pools the bare addresses of every header value,
// lowercases and deduplicates them, and joins them sorted with spaces.
func normalizeAddresses(values []string, messageCharset string) (string, bool) {
	set := make(map[string]struct{})
	for _, value := range values {
		for _, addr := range parseAddresses(value, messageCharset) {
			addr = strings.ToLower(strings.TrimSpace(addr))
			if addr != "" {
				set[addr] = struct{}{}
			}
		}
	}
	if len(set) == 0 {
		return "", false
	}

	addrs := make([]string, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return strings.Join(addrs, " "), true
}

// parseAddresses tries a strict RFC 5322 address list first and falls
// back to picking bare addresses out of the decoded text.
func parseAddresses(raw, messageCharset string) []string {
	text := raw
	if !utf8.ValidString(text) {
		s, ok := decodeBytes([]byte(text), messageCharset)
		if !ok {
			return nil
		}
		text = s
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if list, err := addressParser.ParseList(text); err == nil {
		addrs := make([]string, 0, len(list))
		for _, a := range list {
			addrs = append(addrs, a.Address)
		}
		return addrs
	}

	decoded, ok := decodeHeader(text, messageCharset)
	if !ok {
		return nil
	}
	return lenientAddresses(decoded)
}

func lenientAddresses(text string) []string {
	var addrs []string
	for _, entry := range strings.Split(text, ",") {
		entry = stripGroup(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}

		if lt := strings.LastIndex(entry, "<"); lt >= 0 {
			inner := entry[lt+1:]
			if gt := strings.Index(inner, ">"); gt >= 0 {
				inner = inner[:gt]
			}
			addrs = append(addrs, strings.TrimSpace(inner))
			continue
		}

		var found bool
		for _, tok := range strings.Fields(entry) {
			if strings.Contains(tok, "@") {
				addrs = append(addrs, strings.Trim(tok, `"'()[];`))
				found = true
			}
		}
		if !found {
			addrs = append(addrs, strings.Trim(entry, `"'`))
		}
	}
	return addrs
}

// stripGroup removes RFC 5322 group syntax ("name: a@b;") around an entry.
func stripGroup(entry string) string {
	if i := strings.Index(entry, ":"); i >= 0 && !strings.ContainsAny(entry[:i], "@<\"") {
		entry = entry[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(entry), ";"))
}
