package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// Default logical key attribute names, overridable per call.
const (
	DefaultPartitionKey = "pk"
	DefaultSortKey      = "sk"
)

// Item is a raw DynamoDB item.
type Item = map[string]types.AttributeValue

// Key is the composite identity of an item. SK may be nil for tables
// with a partition key only.
type Key struct {
	PK any
	SK any
}

// marshal converts the key values into wire form under the given
// attribute names.
func (k Key) marshal(pkName, skName string) (Item, error) {
	pk, err := attributevalue.Marshal(k.PK)
	if err != nil {
		return nil, fmt.Errorf("marshal partition key: %w", err)
	}
	key := Item{pkName: pk}
	if k.SK != nil {
		sk, err := attributevalue.Marshal(k.SK)
		if err != nil {
			return nil, fmt.Errorf("marshal sort key: %w", err)
		}
		key[skName] = sk
	}
	return key, nil
}

// DynamoDBAPI is the subset of the DynamoDB client surface this layer
// issues. *dynamodb.Client satisfies it; tests substitute a fake. The
// handle is assumed safe for concurrent reuse.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

// Config describes how to construct a Client from credentials. All
// fields are optional; empty fields fall back to the default AWS
// credential and region resolution chain.
type Config struct {
	// TableName is the default table, overridable per call.
	TableName string

	// Region selects the AWS region.
	Region string

	// Static credentials. Leave empty to use the default chain.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides the service endpoint (e.g. DynamoDB Local).
	Endpoint string
}

// Client issues typed operations against one DynamoDB-style store.
// Every call allocates its own placeholder maps and counters, so a
// single Client is safe for concurrent use.
type Client struct {
	api   DynamoDBAPI
	table string
	log   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTable sets the default table name.
func WithTable(name string) Option {
	return func(c *Client) { c.table = name }
}

// WithLogger sets the diagnostic logger. Logging is best-effort: error
// paths log their input context before the error propagates, and nothing
// functional depends on it. The default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New wraps an existing DynamoDB handle.
func New(api DynamoDBAPI, opts ...Option) *Client {
	c := &Client{api: api, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig resolves AWS configuration (optionally with static
// credentials and an endpoint override) and wraps a fresh DynamoDB
// client.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	opts = append([]Option{WithTable(cfg.TableName)}, opts...)
	return New(api, opts...), nil
}

// resolveTable picks the per-call override or the client default.
func (c *Client) resolveTable(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if c.table != "" {
		return c.table, nil
	}
	return "", ErrMissingTable
}

// keyNames applies the default logical key attribute names.
func keyNames(pkName, skName string) (string, string) {
	if pkName == "" {
		pkName = DefaultPartitionKey
	}
	if skName == "" {
		skName = DefaultSortKey
	}
	return pkName, skName
}

// MarshalItem converts a domain value into a raw item. Values that are
// already raw items pass through unchanged.
func MarshalItem(v any) (Item, error) {
	if item, ok := v.(Item); ok {
		return item, nil
	}
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return item, nil
}

// UnmarshalItem converts a raw item into the destination value using
// attributevalue struct tags.
func UnmarshalItem(item Item, dest any) error {
	return attributevalue.UnmarshalMap(item, dest)
}

// sumCapacity totals the reported capacity units across responses.
func sumCapacity(capacities []types.ConsumedCapacity) float64 {
	var total float64
	for _, c := range capacities {
		if c.CapacityUnits != nil {
			total += *c.CapacityUnits
		}
	}
	return total
}
