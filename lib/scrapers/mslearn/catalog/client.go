// Package catalog talks to the Microsoft Learn catalog API: fetching
// and searching the entity collections and resolving the learning
// path → module → unit hierarchy in presentation order.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"learndl/lib/restyutil"
	"learndl/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/mslearn/catalog")

// ErrNotFound signals a negative lookup, as opposed to a transport
// failure. Callers treat it as a normal outcome.
var ErrNotFound = fmt.Errorf("catalog entity not found")

// the API enforces a url length ceiling, so batch unit lookups are
// chunked
const unitBatchSize = 10

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type Client struct {
	Http   *resty.Client
	Locale string
	Retry  restyutil.RetryPolicy
}

type ClientOptions struct {
	// BaseUrl is the catalog endpoint, e.g.
	// https://learn.microsoft.com/api/catalog/
	BaseUrl       string
	Locale        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", browserUserAgent)
	client.SetHeader("accept", "application/json")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/mslearn/catalog/http")

	locale := opts.Locale
	if locale == "" {
		locale = "en-us"
	}

	return &Client{
		Http:   client,
		Locale: locale,
		Retry: restyutil.RetryPolicy{
			Attempts:  opts.RetryAttempts,
			BaseDelay: opts.RetryDelay,
		},
	}
}

// FetchCatalog issues one GET against the catalog endpoint with the
// given query parameters, retrying transient failures. Exhausting the
// retry budget propagates the underlying transport error.
func (c *Client) FetchCatalog(ctx context.Context, params map[string]string) (Catalog, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCatalog")
	defer span.End()
	span.SetAttributes(attribute.String("type", params["type"]))

	res, err := restyutil.Do(ctx, c.Retry, func(ctx context.Context) (*resty.Response, error) {
		req := c.Http.R().
			SetContext(ctx).
			SetQueryParam("locale", c.Locale)
		for k, v := range params {
			req.SetQueryParam(k, v)
		}
		return req.Get("")
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog")
		return Catalog{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		span.SetStatus(codes.Error, "catalog endpoint returned 404")
		return Catalog{}, fmt.Errorf("catalog endpoint returned 404: %s", res.Request.URL)
	}

	var out Catalog
	err = json.Unmarshal(res.Body(), &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal catalog")
		return Catalog{}, err
	}
	return out, nil
}

func (c *Client) entityByUid(ctx context.Context, t EntityType, uid string) (Entity, error) {
	cat, err := c.FetchCatalog(ctx, map[string]string{
		"type": string(t),
		"uid":  uid,
	})
	if err != nil {
		return Entity{}, err
	}
	entities := cat.ByType(t)
	if len(entities) == 0 {
		return Entity{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return entities[0], nil
}

func (c *Client) LearningPathByUid(ctx context.Context, uid string) (Entity, error) {
	return c.entityByUid(ctx, TypeLearningPaths, uid)
}

func (c *Client) CourseByUid(ctx context.Context, uid string) (Entity, error) {
	return c.entityByUid(ctx, TypeCourses, uid)
}

func (c *Client) ModuleByUid(ctx context.Context, uid string) (Entity, error) {
	return c.entityByUid(ctx, TypeModules, uid)
}

// LearningPathByUrl derives the conventional uid (learn.<slug>) from
// the slug following the "paths" segment of a learning path url. A url
// without a paths segment is a not-found, not a transport failure.
func (c *Client) LearningPathByUrl(ctx context.Context, rawUrl string) (Entity, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return Entity{}, fmt.Errorf("%w: unparseable url %q", ErrNotFound, rawUrl)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "paths" && i+1 < len(segments) {
			return c.LearningPathByUid(ctx, "learn."+segments[i+1])
		}
	}
	return Entity{}, fmt.Errorf("%w: no paths segment in %q", ErrNotFound, rawUrl)
}

// Modules batch-fetches the path's module uids in one call and re-sorts
// the response to match the path's child order. Modules missing from
// the response are dropped.
func (c *Client) Modules(ctx context.Context, path Entity) ([]Entity, error) {
	ctx, span := tracer.Start(ctx, "client:Modules")
	defer span.End()

	if len(path.Modules) == 0 {
		return nil, nil
	}

	cat, err := c.FetchCatalog(ctx, map[string]string{
		"type": string(TypeModules),
		"uid":  strings.Join(path.Modules, ","),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch modules")
		return nil, err
	}

	return sortByUidOrder(cat.Modules, path.Modules), nil
}

// UnitsByModule fetches every module's units in batches and regroups
// them per module uid, each list in the module's own child order. A
// failed batch is logged and skipped; the other batches still count.
func (c *Client) UnitsByModule(ctx context.Context, modules []Entity) (map[string][]Entity, error) {
	ctx, span := tracer.Start(ctx, "client:UnitsByModule")
	defer span.End()

	var allUids []string
	for _, module := range modules {
		allUids = append(allUids, module.Units...)
	}
	if len(allUids) == 0 {
		return map[string][]Entity{}, nil
	}

	var units []Entity
	for start := 0; start < len(allUids); start += unitBatchSize {
		end := start + unitBatchSize
		if end > len(allUids) {
			end = len(allUids)
		}
		batch := allUids[start:end]

		cat, err := c.FetchCatalog(ctx, map[string]string{
			"type": string(TypeUnits),
			"uid":  strings.Join(batch, ","),
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch batch of units", "size", len(batch), "err", err)
			span.RecordError(err)
			continue
		}
		units = append(units, cat.Units...)
	}

	result := make(map[string][]Entity, len(modules))
	for _, module := range modules {
		result[module.Uid] = sortByUidOrder(units, module.Units)
	}
	return result, nil
}

// sortByUidOrder picks entities out of an unordered batch response in
// the order of the original child uid list, dropping absentees.
func sortByUidOrder(entities []Entity, uidOrder []string) []Entity {
	byUid := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byUid[e.Uid] = e
	}

	sorted := make([]Entity, 0, len(uidOrder))
	for _, uid := range uidOrder {
		if e, ok := byUid[uid]; ok {
			sorted = append(sorted, e)
		}
	}
	return sorted
}
