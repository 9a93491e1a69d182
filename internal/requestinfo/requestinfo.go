//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, client IP + country, and timestamp).  Submitted
//  registrations carry a flattened copy (Meta) so downstream consumers of
//  the publish queue can tell bots from browsers without reparsing.
//  These structs are inert and safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer            (UA parsing)
//  • github.com/oschwald/geoip2-golang   (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/cadastro/internal/cache"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string // Entire User-Agent header
	Browser     string // "Chrome", "Firefox", "Safari", etc.
	Version     string // "124.0.6367"
	OS          string // "macOS", "Windows", "Android", "iOS", etc.
	OSVersion   string // "14.5", "11", "10"
	Device      string // "Desktop", "Phone", "Tablet", "TV", ...
	IsBot       bool
	PrimaryLang string // First tag from Accept-Language ("pt-br", "en", ...)
}

// Geo holds IP-based hints.  Best-effort; empty when no database is loaded.
type Geo struct {
	IP         net.IP
	CountryISO string // "BR", "PT", ...
}

// RequestInfo is stored in the request context by Resolver.Middleware.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Path      string
	Timestamp time.Time
}

// Meta flattens ri into the string map stored on a submission.
func (ri *RequestInfo) Meta() map[string]string {
	if ri == nil {
		return nil
	}
	m := map[string]string{
		"browser": ri.UA.Browser,
		"os":      ri.UA.OS,
		"device":  ri.UA.Device,
		"bot":     strconv.FormatBool(ri.UA.IsBot),
	}
	if ri.Geo.IP != nil {
		m["ip"] = ri.Geo.IP.String()
	}
	if ri.Geo.CountryISO != "" {
		m["country"] = ri.Geo.CountryISO
	}
	if ri.UA.PrimaryLang != "" {
		m["lang"] = ri.UA.PrimaryLang
	}
	return m
}

//
//  -----------------------------
//  Resolver
//  -----------------------------
//

// countryDB is the slice of *geoip2.Reader the resolver needs.
type countryDB interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Resolver builds RequestInfo values.  The zero value works without geo
// data.  Safe for concurrent use.
type Resolver struct {
	geo   countryDB
	cache *cache.LRU[string, string] // ip → country ISO
}

// NewResolver opens the MaxMind database at geoPath.  An empty path returns
// a resolver without geo lookup.
func NewResolver(geoPath string) (*Resolver, error) {
	if geoPath == "" {
		return &Resolver{}, nil
	}
	db, err := geoip2.Open(geoPath)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoIP DB: %w", err)
	}
	return newResolver(db), nil
}

func newResolver(db countryDB) *Resolver {
	return &Resolver{geo: db, cache: cache.New[string, string](4096)}
}

// Close releases the geo database.
func (rs *Resolver) Close() error {
	if rs.geo == nil {
		return nil
	}
	return rs.geo.Close()
}

// lookupGeo returns best-effort Geo data, consulting the LRU first.
func (rs *Resolver) lookupGeo(ip net.IP) Geo {
	if rs.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	key := ip.String()
	if iso, ok := rs.cache.Get(key); ok {
		return Geo{IP: ip, CountryISO: iso}
	}
	rec, err := rs.geo.Country(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	rs.cache.Add(key, rec.Country.IsoCode)
	return Geo{IP: ip, CountryISO: rec.Country.IsoCode}
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the value stored by the middleware, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithInfo returns a copy of ctx carrying ri.
func WithInfo(ctx context.Context, ri *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, ri)
}

//
//  -----------------------------
//  UA helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(uaHeader, acceptLang string) UA {
	u := uasurfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         uaHeader,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     trimVersion(u.Browser.Version),
		OS:          osName,
		OSVersion:   trimVersion(u.OS.Version),
		Device:      deviceTypeToString(u.DeviceType),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0" parts.
func trimVersion(v uasurfer.Version) string {
	out := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	return out
}

func deviceTypeToString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// primaryLang extracts the first language tag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}
