package store

import "errors"

var (
	// ErrMissingTable is returned when neither the call nor the client
	// provides a table name.
	ErrMissingTable = errors.New("arbor: table name required")

	// ErrMissingPartitionKey is returned when a Query-mode find carries no
	// partition key value.
	ErrMissingPartitionKey = errors.New("arbor: query requires a partition key value")

	// ErrLimitWithRecursive is returned when a find sets both a page limit
	// and recursive fetching.
	ErrLimitWithRecursive = errors.New("arbor: limit and recursive fetch are mutually exclusive")

	// ErrSortKeyWithoutIndex is returned when a find names a custom sort
	// key attribute without naming an index. The base table's sort key is
	// fixed, so a differing sort key implies a secondary index.
	ErrSortKeyWithoutIndex = errors.New("arbor: custom sort key name requires an index name")

	// ErrSortOnScan is returned when a find requests a sort order in Scan
	// mode; scans have no ordering guarantee.
	ErrSortOnScan = errors.New("arbor: sort order is query-only")

	// ErrNotFound is returned by point reads when the item does not exist.
	ErrNotFound = errors.New("arbor: item not found")

	// ErrConditionFailed is returned when a condition expression rejected
	// a write, or a transaction was canceled by a failed condition.
	// Condition failures are never retried.
	ErrConditionFailed = errors.New("arbor: condition failed")

	// ErrEmptyTransact is returned when a transaction carries no items.
	ErrEmptyTransact = errors.New("arbor: transaction requires at least one item")

	// ErrBadTransactItem is returned when a transact item does not set
	// exactly one of Put, Delete, Update, ConditionCheck.
	ErrBadTransactItem = errors.New("arbor: transact item must set exactly one operation")

	// ErrNothingToUpdate is returned when an update carries an empty
	// operation bag.
	ErrNothingToUpdate = errors.New("arbor: update requires at least one operation")
)
