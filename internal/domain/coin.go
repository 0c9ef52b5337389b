package domain

import "strings"

// NormalizeCoin upper-cases a coin name. Builder-deployed perps keep their
// dex prefix untouched, so "xyz:copper" becomes "xyz:COPPER".
func NormalizeCoin(coin string) string {
	coin = strings.TrimSpace(coin)
	if prefix, name, ok := strings.Cut(coin, ":"); ok {
		return prefix + ":" + strings.ToUpper(name)
	}
	return strings.ToUpper(coin)
}

// FileSafeCoin makes a coin name usable inside a file name.
func FileSafeCoin(coin string) string {
	return strings.ReplaceAll(coin, ":", "_")
}
