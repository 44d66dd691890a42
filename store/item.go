package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/expr"
)

// GetInput describes a point read.
type GetInput struct {
	TableName string
	PKName    string
	SKName    string
	Key       Key
	Project   []string
	Strong    bool
}

// Get reads one item by key, returning ErrNotFound when it does not
// exist.
func (c *Client) Get(ctx context.Context, in GetInput) (Item, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}
	pkName, skName := keyNames(in.PKName, in.SKName)
	key, err := in.Key.marshal(pkName, skName)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	}
	if in.Strong {
		input.ConsistentRead = aws.Bool(true)
	}
	if len(in.Project) > 0 {
		names := map[string]string{}
		input.ProjectionExpression = aws.String(expr.Projection(in.Project, names))
		input.ExpressionAttributeNames = names
	}

	out, err := c.api.GetItem(ctx, input)
	if err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("get failed")
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return out.Item, nil
}

// PutInput describes a single-item write.
type PutInput struct {
	TableName     string
	Item          any
	Conditions    []expr.Clause
	ConditionExpr string
}

// Put writes one item, optionally guarded by conditions. A rejected
// condition surfaces as ErrConditionFailed.
func (c *Client) Put(ctx context.Context, in PutInput) error {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return err
	}
	item, err := MarshalItem(in.Item)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}
	if err := attachCondition(in.Conditions, in.ConditionExpr, nil, nil,
		&input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return err
	}

	if _, err := c.api.PutItem(ctx, input); err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("put failed")
		return asConditionFailure(err)
	}
	return nil
}

// DeleteInput describes a single-key delete.
type DeleteInput struct {
	TableName     string
	PKName        string
	SKName        string
	Key           Key
	Conditions    []expr.Clause
	ConditionExpr string
}

// DeleteKey removes one item by key, optionally guarded by conditions.
func (c *Client) DeleteKey(ctx context.Context, in DeleteInput) error {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return err
	}
	pkName, skName := keyNames(in.PKName, in.SKName)
	key, err := in.Key.marshal(pkName, skName)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	}
	if err := attachCondition(in.Conditions, in.ConditionExpr, nil, nil,
		&input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return err
	}

	if _, err := c.api.DeleteItem(ctx, input); err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("delete failed")
		return asConditionFailure(err)
	}
	return nil
}

// UpdateInput describes a single-key update.
type UpdateInput struct {
	TableName     string
	PKName        string
	SKName        string
	Key           Key
	Ops           expr.UpdateOperations
	Conditions    []expr.Clause
	ConditionExpr string
}

// Update applies an update-operation bag to one item and returns the new
// image.
func (c *Client) Update(ctx context.Context, in UpdateInput) (Item, error) {
	table, err := c.resolveTable(in.TableName)
	if err != nil {
		return nil, err
	}
	pkName, skName := keyNames(in.PKName, in.SKName)
	key, err := in.Key.marshal(pkName, skName)
	if err != nil {
		return nil, err
	}
	if in.Ops.Empty() {
		return nil, ErrNothingToUpdate
	}

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	updateExpr, err := expr.Update(in.Ops, names, values)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(table),
		Key:              key,
		UpdateExpression: aws.String(updateExpr),
		ReturnValues:     types.ReturnValueAllNew,
	}
	if err := attachCondition(in.Conditions, in.ConditionExpr, names, values,
		&input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	if input.ExpressionAttributeNames == nil && len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if input.ExpressionAttributeValues == nil && len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	out, err := c.api.UpdateItem(ctx, input)
	if err != nil {
		c.log.Error().Err(err).Str("table", table).Msg("update failed")
		return nil, asConditionFailure(err)
	}
	return out.Attributes, nil
}

// asConditionFailure maps the store's conditional-check rejection onto
// the package sentinel.
func asConditionFailure(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}
