package rotation

import "strings"

// RotateConnectionString returns original with only its password segment
// replaced by newPassword.
//
// The expected shape is <scheme>://<user>:<old_password>@<rest>. The
// password segment is located positionally: the first "://", the first ":"
// after it, then the first "@" after that. Every byte outside the password
// segment is preserved as-is; parsing with net/url would re-encode userinfo
// and break that guarantee.
//
// Inputs that do not carry all three markers in order are returned
// unchanged. Unrecognized formats are deliberately a no-op rather than an
// error, so a record holding an odd value survives rotation untouched.
func RotateConnectionString(original, newPassword string) string {
	scheme := strings.Index(original, "://")
	if scheme < 0 {
		return original
	}

	rest := original[scheme+3:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return original
	}

	after := rest[colon+1:]
	at := strings.Index(after, "@")
	if at < 0 {
		return original
	}

	passwordStart := scheme + 3 + colon + 1
	return original[:passwordStart] + newPassword + after[at:]
}
