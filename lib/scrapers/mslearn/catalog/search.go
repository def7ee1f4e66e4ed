package catalog

import (
	"context"

	"learndl/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// matchesQuery applies the two-tier match: a case-insensitive
// substring over the searchable fields first, then a normalized
// comparison with all non-alphanumerics stripped so that "PL200"
// still finds "PL-200".
func matchesQuery(e Entity, query string) bool {
	fields := []string{e.Title, e.Summary, e.Uid, e.CourseNumber}

	for _, f := range fields {
		if textutil.ContainsFold(f, query) {
			return true
		}
	}
	for _, f := range fields {
		if textutil.ContainsNormalized(f, query) {
			return true
		}
	}
	return false
}

// Search fetches each requested collection in full and filters
// in-process. Results keep catalog iteration order and contain each
// matching entity exactly once.
func (c *Client) Search(ctx context.Context, query string, types []EntityType) ([]Entity, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if len(types) == 0 {
		types = []EntityType{TypeLearningPaths, TypeCourses}
	}

	var results []Entity
	for _, t := range types {
		cat, err := c.FetchCatalog(ctx, map[string]string{"type": string(t)})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch collection")
			return nil, err
		}
		for _, e := range cat.ByType(t) {
			if matchesQuery(e, query) {
				results = append(results, e)
			}
		}
	}
	return results, nil
}
