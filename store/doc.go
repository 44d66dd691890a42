// Package store provides a typed data-access layer over DynamoDB:
// structured conditions, unified query/scan pagination, chunked batch
// operations with retry, and multi-item atomic transactions.
//
// # Client
//
// A [Client] wraps any handle satisfying [DynamoDBAPI] (normally a
// *dynamodb.Client) plus a default table name; every call may override
// the table. Construct one from an existing handle with [New], or from
// credentials with [NewFromConfig]:
//
//	client, err := store.NewFromConfig(ctx, store.Config{
//	    TableName: "events",
//	    Region:    "us-east-1",
//	})
//
// # Reads
//
// [Client.Find] unifies Query and Scan behind one paginated entry point;
// [Client.FindAll], [Client.FindFirst] and [Client.FindPage] are named
// variants for the common shapes. [Client.BatchGet] fetches up to 100
// keys per wire call, retrying unprocessed keys with capped exponential
// backoff.
//
// # Writes
//
// [Client.BatchWrite] and [Client.BatchDelete] run in one of two modes:
// when no item carries a condition they use the cheap non-atomic batch
// primitive in chunks of 25; when any item carries a condition the whole
// call switches to all-or-nothing transactions in chunks of 100.
// [Client.Transact] assembles heterogeneous put/delete/update/check
// operations into a single atomic request.
//
// # Errors
//
// Request-shape problems surface synchronously before any network call
// ([ErrMissingTable], [ErrMissingPartitionKey], [ErrLimitWithRecursive],
// and friends). Failed conditions surface as [ErrConditionFailed] and
// are never retried. Retry applies only to store-reported unprocessed
// remainders of batch calls.
package store
