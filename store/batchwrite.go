package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/expr"
	"github.com/jacentio/arbor/internal/batchutil"
)

// Chunk ceilings of the two write modes. Plain batches are the cheap
// non-atomic primitive; transactional chunks trade roughly double the
// write cost for all-or-nothing semantics per chunk.
const (
	plainWriteChunkSize    = 25
	transactWriteChunkSize = 100
)

// WriteItem is one item of a batch write. Item may be a domain value
// (marshaled via attributevalue) or a raw Item. Attaching Conditions or
// a raw ConditionExpr switches the whole call into transactional mode.
type WriteItem struct {
	Item          any
	Conditions    []expr.Clause
	ConditionExpr string
}

// DeleteItem is one key of a batch delete, optionally conditioned.
type DeleteItem struct {
	Key           Key
	Conditions    []expr.Clause
	ConditionExpr string
}

// BatchWriteInput describes a chunked multi-item write.
type BatchWriteInput struct {
	// TableName overrides the client's default table.
	TableName string

	// Items to write.
	Items []WriteItem

	// Atomic forces transactional mode even when no item carries a
	// condition.
	Atomic bool

	// MaxRetries bounds retries of unprocessed items per chunk (default 3).
	MaxRetries int
}

// BatchDeleteInput describes a chunked multi-key delete.
type BatchDeleteInput struct {
	// TableName overrides the client's default table.
	TableName string

	// PKName and SKName override the logical key attribute names.
	PKName string
	SKName string

	// Keys to delete.
	Keys []DeleteItem

	// Atomic forces transactional mode even when no key carries a
	// condition.
	Atomic bool

	// MaxRetries bounds retries of unprocessed items per chunk (default 3).
	MaxRetries int
}

// BatchWriteResult tallies a chunked write. Processed plus Failed equals
// the input size; items that failed after retry exhaustion (or whose
// transactional chunk was rejected) count as Failed rather than raising
// an error.
type BatchWriteResult struct {
	Processed        int
	Failed           int
	ConsumedCapacity float64
}

// TransformWrites converts domain values into write items. A nil fn
// wraps each value unconditioned.
func TransformWrites[S any](values []S, fn func(S) WriteItem) []WriteItem {
	items := make([]WriteItem, len(values))
	for i, v := range values {
		if fn == nil {
			items[i] = WriteItem{Item: v}
		} else {
			items[i] = fn(v)
		}
	}
	return items
}

// TransformDeletes converts domain values into delete keys.
func TransformDeletes[S any](values []S, fn func(S) DeleteItem) []DeleteItem {
	keys := make([]DeleteItem, len(values))
	for i, v := range values {
		keys[i] = fn(v)
	}
	return keys
}

// BatchWrite stores the given items. With no conditions anywhere it uses
// plain batches of 25 with unprocessed-remainder retry; if any item
// carries a condition (or Atomic is set) the entire call runs as
// all-or-nothing transactions in chunks of 100, where one failed
// condition rejects its whole chunk. Chunks execute strictly
// sequentially, and committed chunks are never rolled back.
func (c *Client) BatchWrite(ctx context.Context, in BatchWriteInput) (*BatchWriteResult, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}

	if in.Atomic || anyWriteConditioned(in.Items) {
		return c.batchWriteTransact(ctx, table, in.Items)
	}

	requests := make([]types.WriteRequest, len(in.Items))
	for i, w := range in.Items {
		item, err := MarshalItem(w.Item)
		if err != nil {
			return nil, err
		}
		requests[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
	}
	return c.batchWritePlain(ctx, table, requests, in.MaxRetries)
}

// BatchDelete removes the given keys, with the same dual-mode and retry
// semantics as BatchWrite.
func (c *Client) BatchDelete(ctx context.Context, in BatchDeleteInput) (*BatchWriteResult, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}
	pkName, skName := keyNames(in.PKName, in.SKName)

	if in.Atomic || anyDeleteConditioned(in.Keys) {
		return c.batchDeleteTransact(ctx, table, pkName, skName, in.Keys)
	}

	requests := make([]types.WriteRequest, len(in.Keys))
	for i, d := range in.Keys {
		key, err := d.Key.marshal(pkName, skName)
		if err != nil {
			return nil, err
		}
		requests[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}
	}
	return c.batchWritePlain(ctx, table, requests, in.MaxRetries)
}

func anyWriteConditioned(items []WriteItem) bool {
	for _, w := range items {
		if len(w.Conditions) > 0 || w.ConditionExpr != "" {
			return true
		}
	}
	return false
}

func anyDeleteConditioned(keys []DeleteItem) bool {
	for _, d := range keys {
		if len(d.Conditions) > 0 || d.ConditionExpr != "" {
			return true
		}
	}
	return false
}

// batchWritePlain executes the non-atomic path: chunks of 25, each
// chunk's unprocessed remainder retried with backoff. A chunk's items
// still unprocessed after retries exhaust count as failed; earlier
// chunks keep their partial progress.
func (c *Client) batchWritePlain(ctx context.Context, table string, requests []types.WriteRequest, maxRetries int) (*BatchWriteResult, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	result := &BatchWriteResult{}
	for chunkIdx, chunk := range batchutil.Chunk(requests, plainWriteChunkSize) {
		pending := chunk
		attempt := 0

		for {
			out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems:           map[string][]types.WriteRequest{table: pending},
				ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
			})
			if err != nil {
				c.log.Error().Err(err).Str("table", table).Int("chunk", chunkIdx).
					Int("items", len(pending)).Msg("batch write chunk failed")
				return nil, err
			}
			result.ConsumedCapacity += sumCapacity(out.ConsumedCapacity)

			pending = out.UnprocessedItems[table]
			if len(pending) == 0 {
				break
			}
			attempt++
			if attempt > maxRetries {
				c.log.Error().Str("table", table).Int("chunk", chunkIdx).
					Int("dropped", len(pending)).Msg("unprocessed items dropped after retry exhaustion")
				result.Failed += len(pending)
				break
			}
			if err := batchutil.Sleep(ctx, batchutil.BackoffDelay(attempt)); err != nil {
				return nil, err
			}
		}
	}

	result.Processed = len(requests) - result.Failed
	return result, nil
}

// batchWriteTransact executes the conditional path: chunks of 100, each
// chunk one all-or-nothing transaction. A failed condition rejects the
// whole chunk and counts all of its items as failed; other errors
// propagate.
func (c *Client) batchWriteTransact(ctx context.Context, table string, items []WriteItem) (*BatchWriteResult, error) {
	result := &BatchWriteResult{}
	for _, chunk := range batchutil.Chunk(items, transactWriteChunkSize) {
		tx := make([]TransactItem, len(chunk))
		for i, w := range chunk {
			tx[i] = TransactItem{Put: &TransactPut{
				TableName:     table,
				Item:          w.Item,
				Conditions:    w.Conditions,
				ConditionExpr: w.ConditionExpr,
			}}
		}
		if err := c.Transact(ctx, TransactInput{Items: tx}); err != nil {
			if errors.Is(err, ErrConditionFailed) {
				result.Failed += len(chunk)
				continue
			}
			return nil, err
		}
		result.Processed += len(chunk)
	}
	return result, nil
}

func (c *Client) batchDeleteTransact(ctx context.Context, table, pkName, skName string, keys []DeleteItem) (*BatchWriteResult, error) {
	result := &BatchWriteResult{}
	for _, chunk := range batchutil.Chunk(keys, transactWriteChunkSize) {
		tx := make([]TransactItem, len(chunk))
		for i, d := range chunk {
			tx[i] = TransactItem{Delete: &TransactDelete{
				TableName:     table,
				Key:           d.Key,
				PKName:        pkName,
				SKName:        skName,
				Conditions:    d.Conditions,
				ConditionExpr: d.ConditionExpr,
			}}
		}
		if err := c.Transact(ctx, TransactInput{Items: tx}); err != nil {
			if errors.Is(err, ErrConditionFailed) {
				result.Failed += len(chunk)
				continue
			}
			return nil, err
		}
		result.Processed += len(chunk)
	}
	return result, nil
}
