package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/expr"
	"github.com/jacentio/arbor/internal/batchutil"
)

// batchGetChunkSize is the store's per-call key ceiling for batched gets.
const batchGetChunkSize = 100

// defaultMaxRetries bounds the unprocessed-remainder retry loop of the
// batch engines.
const defaultMaxRetries = 3

// BatchGetInput describes a chunked multi-key read.
type BatchGetInput struct {
	// TableName overrides the client's default table.
	TableName string

	// PKName and SKName override the logical key attribute names.
	PKName string
	SKName string

	// Keys are the items to fetch. Order of returned items is not
	// guaranteed.
	Keys []Key

	// Project limits the attributes returned.
	Project []string

	// Strong requests strongly consistent reads.
	Strong bool

	// MaxRetries bounds retries of unprocessed keys per chunk (default 3).
	MaxRetries int
}

// BatchGetResult aggregates a chunked read.
//
// Missing counts requested keys that produced no item. It conflates
// keys that do not exist with keys dropped after retry exhaustion; the
// store reports neither distinctly.
type BatchGetResult struct {
	Items            []Item
	Missing          int
	ConsumedCapacity float64
}

// BatchGet fetches the given keys in chunks of up to 100, retrying each
// chunk's unprocessed remainder with capped exponential backoff. Keys
// still unprocessed after retries exhaust are dropped and logged, never
// retried further.
func (c *Client) BatchGet(ctx context.Context, in BatchGetInput) (*BatchGetResult, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}
	pkName, skName := keyNames(in.PKName, in.SKName)

	maxRetries := in.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	names := map[string]string{}
	projection := expr.Projection(in.Project, names)

	keys := make([]Item, len(in.Keys))
	for i, k := range in.Keys {
		keys[i], err = k.marshal(pkName, skName)
		if err != nil {
			return nil, err
		}
	}

	result := &BatchGetResult{}
	for chunkIdx, chunk := range batchutil.Chunk(keys, batchGetChunkSize) {
		pending := chunk
		attempt := 0

		for len(pending) > 0 {
			attrs := types.KeysAndAttributes{Keys: pending}
			if in.Strong {
				attrs.ConsistentRead = aws.Bool(true)
			}
			if projection != "" {
				attrs.ProjectionExpression = aws.String(projection)
				attrs.ExpressionAttributeNames = names
			}

			out, err := c.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems:           map[string]types.KeysAndAttributes{table: attrs},
				ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
			})
			if err != nil {
				c.log.Error().Err(err).Str("table", table).Int("chunk", chunkIdx).
					Int("keys", len(pending)).Msg("batch get chunk failed")
				return nil, err
			}

			result.Items = append(result.Items, out.Responses[table]...)
			result.ConsumedCapacity += sumCapacity(out.ConsumedCapacity)

			pending = out.UnprocessedKeys[table].Keys
			if len(pending) == 0 {
				break
			}
			attempt++
			if attempt > maxRetries {
				c.log.Error().Str("table", table).Int("chunk", chunkIdx).
					Int("dropped", len(pending)).Msg("unprocessed keys dropped after retry exhaustion")
				break
			}
			if err := batchutil.Sleep(ctx, batchutil.BackoffDelay(attempt)); err != nil {
				return nil, err
			}
		}
	}

	result.Missing = len(in.Keys) - len(result.Items)
	return result, nil
}
