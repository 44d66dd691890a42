package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/expr"
)

// SortOrder selects the scan direction of a Query.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// FindInput describes a paginated Query or Scan.
type FindInput struct {
	// TableName overrides the client's default table.
	TableName string

	// IndexName targets a secondary index instead of the base table.
	IndexName string

	// Scan switches from Query to a full table Scan. Scans need no key
	// condition and guarantee no ordering.
	Scan bool

	// PKName and SKName override the logical key attribute names
	// (defaults "pk" and "sk"). A custom SKName requires IndexName: the
	// base table's sort key is fixed, so a differing name implies a
	// secondary index.
	PKName string
	SKName string

	// PKValue is the partition key value. Required in Query mode.
	PKValue any

	// SK optionally constrains the sort key. Query mode only.
	SK *expr.SortKeyCondition

	// Filters are applied server-side after the key condition.
	Filters []expr.Clause

	// Project limits the attributes returned.
	Project []string

	// Limit caps the items fetched per page. Mutually exclusive with
	// recursive fetching.
	Limit int32

	// StartKey resumes from a previous page's LastKey.
	StartKey Item

	// Recursive follows the pagination cursor until exhaustion (or
	// MaxItems/MaxPages). When false and While is nil, exactly one page
	// is fetched.
	Recursive bool

	// While is the predicate form of recursive fetching: it is called
	// after each page with that page's items, the page count so far, and
	// the running item total; returning false stops the loop.
	While func(page []Item, pages, total int) bool

	// MaxItems stops a Recursive fetch once at least this many items have
	// been accumulated. Zero means unbounded.
	MaxItems int

	// MaxPages caps the number of pages fetched in any mode. Zero means
	// unbounded.
	MaxPages int

	// Sort orders Query results by sort key. Rejected in Scan mode.
	Sort SortOrder

	// Strong requests a strongly consistent read. Only meaningful against
	// the base table; secondary indexes are always eventually consistent.
	Strong bool
}

// FindResult is the accumulated outcome of a find: all fetched items,
// the store-reported counts, and the continuation cursor of the last
// page (nil when the result set is exhausted).
type FindResult struct {
	Items        []Item
	Count        int32
	ScannedCount int32
	LastKey      Item
}

// First returns the first item, if any.
func (r *FindResult) First() (Item, bool) {
	if len(r.Items) == 0 {
		return nil, false
	}
	return r.Items[0], true
}

// Find executes a paginated Query or Scan and returns the canonical rich
// result. Request-shape problems are reported before any network call.
func (c *Client) Find(ctx context.Context, in FindInput) (*FindResult, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}
	if err := validateFind(in); err != nil {
		return nil, err
	}

	pkName, skName := keyNames(in.PKName, in.SKName)

	// Compile every expression once; the maps live for this call only.
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	var keyCond string
	if !in.Scan {
		keyCond, err = expr.KeyCondition(pkName, in.PKValue, skName, in.SK, names, values)
		if err != nil {
			return nil, err
		}
	}
	filter, err := expr.Filter(in.Filters, names, values)
	if err != nil {
		return nil, err
	}
	projection := expr.Projection(in.Project, names)

	recursive := in.Recursive || in.While != nil
	result := &FindResult{}
	cursor := in.StartKey
	pages := 0

	for {
		page, err := c.findPage(ctx, table, in, keyCond, filter, projection, names, values, cursor)
		if err != nil {
			c.log.Error().Err(err).Str("table", table).Bool("scan", in.Scan).Msg("find page failed")
			return nil, err
		}
		pages++
		result.Items = append(result.Items, page.items...)
		result.Count += page.count
		result.ScannedCount += page.scanned
		result.LastKey = page.lastKey
		cursor = page.lastKey

		if in.MaxPages > 0 && pages >= in.MaxPages {
			break
		}
		if !recursive {
			break
		}
		if in.Recursive && in.MaxItems > 0 && len(result.Items) >= in.MaxItems {
			break
		}
		if len(cursor) == 0 {
			break
		}
		if in.While != nil && !in.While(page.items, pages, len(result.Items)) {
			break
		}
	}

	return result, nil
}

// FindAll fetches every page and returns the items. Equivalent to Find
// with Recursive set.
func (c *Client) FindAll(ctx context.Context, in FindInput) ([]Item, error) {
	if in.While == nil {
		in.Recursive = true
	}
	result, err := c.Find(ctx, in)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// FindFirst fetches a single page and returns its first item, or
// ErrNotFound when the page is empty.
func (c *Client) FindFirst(ctx context.Context, in FindInput) (Item, error) {
	in.Recursive = false
	in.While = nil
	result, err := c.Find(ctx, in)
	if err != nil {
		return nil, err
	}
	item, ok := result.First()
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

// FindPage fetches exactly one page, preserving the continuation cursor
// in the result.
func (c *Client) FindPage(ctx context.Context, in FindInput) (*FindResult, error) {
	in.Recursive = false
	in.While = nil
	return c.Find(ctx, in)
}

func validateFind(in FindInput) error {
	recursive := in.Recursive || in.While != nil
	if in.Limit > 0 && recursive {
		return ErrLimitWithRecursive
	}
	if !in.Scan && in.PKValue == nil {
		return ErrMissingPartitionKey
	}
	if in.SKName != "" && in.SKName != DefaultSortKey && in.IndexName == "" {
		return ErrSortKeyWithoutIndex
	}
	if in.Scan && in.Sort != "" {
		return ErrSortOnScan
	}
	return nil
}

type findPageResult struct {
	items   []Item
	count   int32
	scanned int32
	lastKey Item
}

func (c *Client) findPage(ctx context.Context, table string, in FindInput,
	keyCond, filter, projection string,
	names map[string]string, values map[string]types.AttributeValue,
	cursor Item) (*findPageResult, error) {

	if in.Scan {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: cursor,
		}
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
		if filter != "" {
			input.FilterExpression = aws.String(filter)
		}
		if projection != "" {
			input.ProjectionExpression = aws.String(projection)
		}
		if in.IndexName != "" {
			input.IndexName = aws.String(in.IndexName)
		}
		if in.Limit > 0 {
			input.Limit = aws.Int32(in.Limit)
		}
		if in.Strong {
			input.ConsistentRead = aws.Bool(true)
		}

		out, err := c.api.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		return &findPageResult{
			items:   out.Items,
			count:   out.Count,
			scanned: out.ScannedCount,
			lastKey: out.LastEvaluatedKey,
		}, nil
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ExclusiveStartKey:         cursor,
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}
	if projection != "" {
		input.ProjectionExpression = aws.String(projection)
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
	}
	if in.Strong {
		input.ConsistentRead = aws.Bool(true)
	}
	if in.Sort == SortDescending {
		input.ScanIndexForward = aws.Bool(false)
	}

	out, err := c.api.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	return &findPageResult{
		items:   out.Items,
		count:   out.Count,
		scanned: out.ScannedCount,
		lastKey: out.LastEvaluatedKey,
	}, nil
}
