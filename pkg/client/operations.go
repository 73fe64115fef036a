package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Operation identifies one API call family. Every operation owns an
// independent concurrency gate; gates for different operations never contend.
type Operation int

const (
	OpUser Operation = iota
	OpSummary
	OpSimple
	OpDataMD5
	OpResolverForward
	OpResolverReverse
	OpSimpleBest
	OpSearch
	OpAlertList
	OpAlertAdd
	OpAlertDel
	OpBulkSummary
	OpBulkSimpleIP
	OpBulkSimpleBestIP
	OpBulkDiscoveryAsset
	OpExport

	numOperations
)

func (op Operation) String() string {
	switch op {
	case OpUser:
		return "user"
	case OpSummary:
		return "summary"
	case OpSimple:
		return "simple"
	case OpDataMD5:
		return "datamd5"
	case OpResolverForward:
		return "resolver_fwd"
	case OpResolverReverse:
		return "resolver_rev"
	case OpSimpleBest:
		return "simple_best"
	case OpSearch:
		return "search"
	case OpAlertList:
		return "alert_list"
	case OpAlertAdd:
		return "alert_add"
	case OpAlertDel:
		return "alert_del"
	case OpBulkSummary:
		return "bulk_summary"
	case OpBulkSimpleIP:
		return "bulk_simple_ip"
	case OpBulkSimpleBestIP:
		return "bulk_simple_best_ip"
	case OpBulkDiscoveryAsset:
		return "bulk_discovery_asset"
	case OpExport:
		return "export"
	default:
		return "unknown"
	}
}

// Operations returns every operation, in declaration order.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for op := Operation(0); op < numOperations; op++ {
		ops = append(ops, op)
	}
	return ops
}

// opSpec binds an operation to its HTTP verb and response decoder.
type opSpec struct {
	method string
	decode decodeKind
}

// opTable is the static dispatch table. Paths are built by the operation
// methods below; verb and decoder never vary per call.
var opTable = map[Operation]opSpec{
	OpUser:               {method: http.MethodGet, decode: decodeEnvelope},
	OpSummary:            {method: http.MethodGet, decode: decodeEnvelope},
	OpSimple:             {method: http.MethodGet, decode: decodeEnvelope},
	OpDataMD5:            {method: http.MethodGet, decode: decodeEnvelope},
	OpResolverForward:    {method: http.MethodGet, decode: decodeEnvelope},
	OpResolverReverse:    {method: http.MethodGet, decode: decodeEnvelope},
	OpSimpleBest:         {method: http.MethodGet, decode: decodeEnvelope},
	OpSearch:             {method: http.MethodGet, decode: decodeEnvelope},
	OpAlertList:          {method: http.MethodGet, decode: decodeEnvelope},
	OpAlertAdd:           {method: http.MethodPost, decode: decodeErrorEnvelope},
	OpAlertDel:           {method: http.MethodPost, decode: decodeErrorEnvelope},
	OpBulkSummary:        {method: http.MethodPost, decode: decodeNDJSON},
	OpBulkSimpleIP:       {method: http.MethodPost, decode: decodeNDJSON},
	OpBulkSimpleBestIP:   {method: http.MethodPost, decode: decodeNDJSON},
	OpBulkDiscoveryAsset: {method: http.MethodPost, decode: decodeNDJSON},
	OpExport:             {method: http.MethodGet, decode: decodeNDJSON},
}

// defaultLimits holds the per-operation concurrency ceilings mandated by the
// API contract. Operations absent from the map are unlimited. The export
// feed does not support concurrent streams server-side.
var defaultLimits = map[Operation]int{
	OpExport: 1,
}

// Category is a data category of the intelligence corpus.
type Category string

const (
	CategoryCTL        Category = "ctl"
	CategoryWhois      Category = "whois"
	CategoryGeoloc     Category = "geoloc"
	CategoryInetnum    Category = "inetnum"
	CategorySniffer    Category = "sniffer"
	CategorySynscan    Category = "synscan"
	CategoryTopsite    Category = "topsite"
	CategoryDatascan   Category = "datascan"
	CategoryDatashot   Category = "datashot"
	CategoryPastries   Category = "pastries"
	CategoryResolver   Category = "resolver"
	CategoryVulnscan   Category = "vulnscan"
	CategoryOnionscan  Category = "onionscan"
	CategoryOnionshot  Category = "onionshot"
	CategoryThreatlist Category = "threatlist"
)

// SummaryType selects the needle kind of a summary lookup.
type SummaryType string

const (
	SummaryIP       SummaryType = "ip"
	SummaryDomain   SummaryType = "domain"
	SummaryHostname SummaryType = "hostname"
)

// bestCategories is the fixed allow-list for best-match lookups.
var bestCategories = map[Category]bool{
	CategoryWhois:      true,
	CategoryGeoloc:     true,
	CategoryInetnum:    true,
	CategoryThreatlist: true,
}

func validateBestCategory(cat Category) error {
	if !bestCategories[cat] {
		return fmt.Errorf("%w: %s", ErrBestCategory, cat)
	}
	return nil
}

// User reports which endpoints the API key may call, the filters the license
// allows and how many credits remain. The metadata carries the caller's IP.
func (c *Client) User(ctx context.Context) ResultSeq {
	return c.stream(ctx, request{op: OpUser, path: "user"})
}

// MyIP returns the caller-visible IP address reported by the user endpoint.
func (c *Client) MyIP(ctx context.Context) (string, error) {
	for res, err := range c.User(ctx) {
		if err != nil {
			return "", err
		}
		if ip, ok := res.Meta.MyIP(); ok {
			return ip, nil
		}
	}
	return "", errors.New("sintel: user response did not report myip")
}

// Summary returns the latest results across all categories for the given
// needle (IP, domain or hostname).
func (c *Client) Summary(ctx context.Context, typ SummaryType, needle string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpSummary,
		path: "summary/" + string(typ) + "/" + url.PathEscape(needle),
		page: page,
	})
}

// Simple returns the results of one category for the given needle, with
// history of changes.
//
// Deprecated: single-category lookups are deprecated in API v3; use Search.
func (c *Client) Simple(ctx context.Context, cat Category, needle string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpSimple,
		path: "simple/" + string(cat) + "/" + url.PathEscape(needle),
		page: page,
	})
}

// SimpleDatascanDataMD5 looks up datascan records by data MD5.
//
// Deprecated: deprecated in API v3; use Search.
func (c *Client) SimpleDatascanDataMD5(ctx context.Context, md5 string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpDataMD5,
		path: "simple/datascan/datamd5/" + url.PathEscape(md5),
		page: page,
	})
}

// SimpleResolverForward returns forward resolutions for a domain or hostname.
//
// Deprecated: deprecated in API v3; use Search.
func (c *Client) SimpleResolverForward(ctx context.Context, name string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpResolverForward,
		path: "simple/resolver/forward/" + url.PathEscape(name),
		page: page,
	})
}

// SimpleResolverReverse returns reverse resolutions for an IP address.
//
// Deprecated: deprecated in API v3; use Search.
func (c *Client) SimpleResolverReverse(ctx context.Context, ip string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpResolverReverse,
		path: "simple/resolver/reverse/" + url.PathEscape(ip),
		page: page,
	})
}

// SimpleBest returns the single best matching record (smallest subnet) of a
// category for the given IP address, with no change history. Only the
// whois, geoloc, inetnum and threatlist categories are supported; anything
// else fails locally before a request is sent.
func (c *Client) SimpleBest(ctx context.Context, cat Category, ip string, page int) ResultSeq {
	if err := validateBestCategory(cat); err != nil {
		return failSeq(err)
	}
	return c.stream(ctx, request{
		op:   OpSimpleBest,
		path: "simple/" + string(cat) + "/best/" + url.PathEscape(ip),
		page: page,
	})
}

// Search queries the corpus with an OQL string. The query is passed as an
// opaque, URL-encoded token; no syntax validation happens client-side.
func (c *Client) Search(ctx context.Context, oql string, page int) ResultSeq {
	return c.stream(ctx, request{
		op:   OpSearch,
		path: "search/" + url.PathEscape(oql),
		page: page,
	})
}

// AlertList lists the configured alerts.
func (c *Client) AlertList(ctx context.Context, page int) ResultSeq {
	return c.stream(ctx, request{op: OpAlertList, path: "alert/list", page: page})
}

// alertAddRequest is the alert/add POST body.
type alertAddRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
	Email string `json:"email"`
}

// AlertAdd registers an alert: email receives new results matching the OQL
// query. The success response is a single object, yielded verbatim.
func (c *Client) AlertAdd(ctx context.Context, name, oql, email string) ResultSeq {
	return c.stream(ctx, request{
		op:       OpAlertAdd,
		path:     "alert/add",
		jsonBody: alertAddRequest{Name: name, Query: oql, Email: email},
	})
}

// AlertDel deletes an alert by identifier.
func (c *Client) AlertDel(ctx context.Context, id string) ResultSeq {
	return c.stream(ctx, request{
		op:   OpAlertDel,
		path: "alert/del/" + url.PathEscape(id),
	})
}

// BulkSummary streams summary results for a raw needle list, one JSON record
// per line.
func (c *Client) BulkSummary(ctx context.Context, typ SummaryType, needles []byte) ResultSeq {
	if len(needles) == 0 {
		return failSeq(ErrNoBulkData)
	}
	return c.stream(ctx, request{
		op:      OpBulkSummary,
		path:    "bulk/summary/" + string(typ),
		rawBody: needles,
	})
}

// BulkSimpleIP streams one category's results for a raw IP list.
//
// Deprecated: deprecated in API v3; use BulkDiscoveryAsset.
func (c *Client) BulkSimpleIP(ctx context.Context, cat Category, needles []byte) ResultSeq {
	if len(needles) == 0 {
		return failSeq(ErrNoBulkData)
	}
	return c.stream(ctx, request{
		op:      OpBulkSimpleIP,
		path:    "bulk/simple/" + string(cat) + "/ip",
		rawBody: needles,
	})
}

// BulkSimpleBestIP streams best-match records for a raw IP list. The
// category allow-list of SimpleBest applies.
func (c *Client) BulkSimpleBestIP(ctx context.Context, cat Category, needles []byte) ResultSeq {
	if err := validateBestCategory(cat); err != nil {
		return failSeq(err)
	}
	if len(needles) == 0 {
		return failSeq(ErrNoBulkData)
	}
	return c.stream(ctx, request{
		op:      OpBulkSimpleBestIP,
		path:    "bulk/simple/" + string(cat) + "/best/ip",
		rawBody: needles,
	})
}

// BulkDiscoveryAsset executes bulk OQL searches against discovery assets,
// auto-scrolling through all matches.
func (c *Client) BulkDiscoveryAsset(ctx context.Context, cat Category, needles []byte) ResultSeq {
	if len(needles) == 0 {
		return failSeq(ErrNoBulkData)
	}
	return c.stream(ctx, request{
		op:      OpBulkDiscoveryAsset,
		path:    "bulk/discovery/" + string(cat) + "/asset",
		rawBody: needles,
	})
}

// Export streams every record matching an OQL query, auto-scrolling through
// all results. The server does not support concurrent export streams, so
// the export gate defaults to a limit of one; DisableGating lifts it.
func (c *Client) Export(ctx context.Context, oql string) ResultSeq {
	return c.stream(ctx, request{
		op:   OpExport,
		path: "export/" + url.PathEscape(oql),
	})
}
