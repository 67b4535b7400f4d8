package stringutil

const (
	hashKeep    = 8
	addressKeep = 6
)

// Shorten keeps the first and last keep characters of s joined by "...".
// Strings that would not get shorter are returned as is.
func Shorten(s string, keep int) string {
	if keep <= 0 || len(s) <= 2*keep+3 {
		return s
	}
	return s[:keep] + "..." + s[len(s)-keep:]
}

// ShortenLog shortens a block hash for log lines
func ShortenLog(hash string) string {
	return Shorten(hash, hashKeep)
}

// ShortenAddress shortens a wallet address for log lines
func ShortenAddress(address string) string {
	return Shorten(address, addressKeep)
}
