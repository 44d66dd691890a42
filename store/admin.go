package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableSpec describes a table to create: a partition key and an optional
// sort key, both string-typed unless overridden.
type TableSpec struct {
	TableName string
	PKName    string
	SKName    string
	PKType    types.ScalarAttributeType
	SKType    types.ScalarAttributeType
}

// CreateTable provisions an on-demand table with the described key
// schema. Used by migration and copy flows; the core engines never call
// it.
func (c *Client) CreateTable(ctx context.Context, spec TableSpec) error {
	table, err := c.resolveTable(spec.TableName)
	if err != nil {
		return err
	}
	pkName := spec.PKName
	if pkName == "" {
		pkName = DefaultPartitionKey
	}
	pkType := spec.PKType
	if pkType == "" {
		pkType = types.ScalarAttributeTypeS
	}

	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(pkName), AttributeType: pkType},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(pkName), KeyType: types.KeyTypeHash},
		},
	}
	if spec.SKName != "" {
		skType := spec.SKType
		if skType == "" {
			skType = types.ScalarAttributeTypeS
		}
		input.AttributeDefinitions = append(input.AttributeDefinitions,
			types.AttributeDefinition{AttributeName: aws.String(spec.SKName), AttributeType: skType})
		input.KeySchema = append(input.KeySchema,
			types.KeySchemaElement{AttributeName: aws.String(spec.SKName), KeyType: types.KeyTypeRange})
	}

	if _, err := c.api.CreateTable(ctx, input); err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("create table failed")
		return err
	}
	return nil
}

// DescribeTable returns the table's description.
func (c *Client) DescribeTable(ctx context.Context, tableName string) (*types.TableDescription, error) {
	table, err := c.resolveTable(tableName)
	if err != nil {
		return nil, err
	}
	out, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return nil, err
	}
	return out.Table, nil
}

// DeleteTable removes the table.
func (c *Client) DeleteTable(ctx context.Context, tableName string) error {
	table, err := c.resolveTable(tableName)
	if err != nil {
		return err
	}
	if _, err := c.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(table)}); err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("delete table failed")
		return err
	}
	return nil
}

// TableExists reports whether the table exists.
func (c *Client) TableExists(ctx context.Context, tableName string) (bool, error) {
	_, err := c.DescribeTable(ctx, tableName)
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WaitForTable blocks until the table is active, up to maxWait.
func (c *Client) WaitForTable(ctx context.Context, tableName string, maxWait time.Duration) error {
	table, err := c.resolveTable(tableName)
	if err != nil {
		return err
	}
	waiter := dynamodb.NewTableExistsWaiter(c.api)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, maxWait)
}
