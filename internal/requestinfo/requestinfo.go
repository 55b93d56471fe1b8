// internal/requestinfo/requestinfo.go
//
// Per-request metadata: user-agent fingerprint, client IP, and timestamp.
//
// Context
// -------
// The email validator carries a specific accommodation for mobile-browser
// autofill, and support tickets about rejected forms are useless without
// knowing what browser produced the submission.  The Enrich middleware
// parses the User-Agent once per request and stashes the result in the
// context so handlers can attach browser and device class to validation
// logs without reparsing.
//
// These structs are inert.  They contain no pointers to database handles
// or large buffers, so they are safe to log or JSON-encode.

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
)

// UA holds the parsed user-agent properties the handlers log.
type UA struct {
	Raw     string // entire User-Agent header
	Browser string // "Chrome", "Firefox", "Safari", …
	Version string // "124.0.6367"
	OS      string // "macOS", "Windows", "Android", "iOS", …
	Device  string // "Desktop", "Phone", "Tablet", …
	IsBot   bool
}

// Info is attached to the request context by Enrich.
type Info struct {
	UA        UA
	IP        net.IP
	Timestamp time.Time
}

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil if
// the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	u := surfer.Parse(raw)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: trimVersion(u.Browser.Version),
		OS:      osName,
		Device:  deviceTypeToString(u.DeviceType),
		IsBot:   u.IsBot(),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0".
func trimVersion(v surfer.Version) string {
	out := strings.TrimSuffix(
		strings.TrimSuffix(
			strings.Join([]string{
				strconv.Itoa(v.Major),
				strconv.Itoa(v.Minor),
				strconv.Itoa(v.Patch),
			}, "."),
			".0",
		), ".0",
	)
	if out == "" {
		return "0"
	}
	return out
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt surfer.DeviceType) string {
	switch dt {
	case surfer.DeviceComputer:
		return "Desktop"
	case surfer.DevicePhone:
		return "Phone"
	case surfer.DeviceTablet:
		return "Tablet"
	case surfer.DeviceConsole:
		return "Console"
	case surfer.DeviceWearable:
		return "Wearable"
	case surfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
