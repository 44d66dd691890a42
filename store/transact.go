package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/arbor/expr"
)

// TransactPut writes one item inside a transaction.
type TransactPut struct {
	TableName     string
	Item          any
	Conditions    []expr.Clause
	ConditionExpr string
}

// TransactDelete removes one key inside a transaction.
type TransactDelete struct {
	TableName     string
	Key           Key
	PKName        string
	SKName        string
	Conditions    []expr.Clause
	ConditionExpr string
}

// TransactUpdate applies an update-operation bag to one key inside a
// transaction.
type TransactUpdate struct {
	TableName     string
	Key           Key
	PKName        string
	SKName        string
	Ops           expr.UpdateOperations
	Conditions    []expr.Clause
	ConditionExpr string
}

// TransactCheck asserts a condition against one key without writing it.
type TransactCheck struct {
	TableName     string
	Key           Key
	PKName        string
	SKName        string
	Conditions    []expr.Clause
	ConditionExpr string
}

// TransactItem is one operation of a transaction: exactly one of the
// four fields must be set.
type TransactItem struct {
	Put            *TransactPut
	Delete         *TransactDelete
	Update         *TransactUpdate
	ConditionCheck *TransactCheck
}

// TransactInput describes a multi-item atomic write.
type TransactInput struct {
	// Items execute as one all-or-nothing unit, in order.
	Items []TransactItem

	// Token is the idempotency token. Generated when empty, so a plain
	// retry of the same input is not idempotent unless the caller pins
	// the token.
	Token string
}

// Transact assembles the items into a single atomic request. Atomicity
// comes from the store's transaction primitive; no rollback logic lives
// here. A failed per-item condition cancels the whole unit and surfaces
// as ErrConditionFailed, never retried.
func (c *Client) Transact(ctx context.Context, in TransactInput) error {
	if len(in.Items) == 0 {
		return ErrEmptyTransact
	}

	items := make([]types.TransactWriteItem, len(in.Items))
	for i, item := range in.Items {
		built, err := c.buildTransactItem(item)
		if err != nil {
			return fmt.Errorf("transact item %d: %w", i, err)
		}
		items[i] = built
	}

	token := in.Token
	if token == "" {
		token = uuid.NewString()
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(token),
	})
	if err != nil {
		c.log.Error().Err(err).Int("items", len(items)).Msg("transaction failed")
		return mapCancellation(err)
	}
	return nil
}

func (c *Client) buildTransactItem(item TransactItem) (types.TransactWriteItem, error) {
	var zero types.TransactWriteItem

	set := 0
	for _, present := range []bool{item.Put != nil, item.Delete != nil, item.Update != nil, item.ConditionCheck != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return zero, ErrBadTransactItem
	}

	switch {
	case item.Put != nil:
		op := item.Put
		table, err := c.resolveTable(op.TableName)
		if err != nil {
			return zero, err
		}
		raw, err := MarshalItem(op.Item)
		if err != nil {
			return zero, err
		}
		put := &types.Put{TableName: aws.String(table), Item: raw}
		if err := attachCondition(op.Conditions, op.ConditionExpr, nil, nil,
			&put.ConditionExpression, &put.ExpressionAttributeNames, &put.ExpressionAttributeValues); err != nil {
			return zero, err
		}
		return types.TransactWriteItem{Put: put}, nil

	case item.Delete != nil:
		op := item.Delete
		table, err := c.resolveTable(op.TableName)
		if err != nil {
			return zero, err
		}
		pkName, skName := keyNames(op.PKName, op.SKName)
		key, err := op.Key.marshal(pkName, skName)
		if err != nil {
			return zero, err
		}
		del := &types.Delete{TableName: aws.String(table), Key: key}
		if err := attachCondition(op.Conditions, op.ConditionExpr, nil, nil,
			&del.ConditionExpression, &del.ExpressionAttributeNames, &del.ExpressionAttributeValues); err != nil {
			return zero, err
		}
		return types.TransactWriteItem{Delete: del}, nil

	case item.Update != nil:
		op := item.Update
		table, err := c.resolveTable(op.TableName)
		if err != nil {
			return zero, err
		}
		pkName, skName := keyNames(op.PKName, op.SKName)
		key, err := op.Key.marshal(pkName, skName)
		if err != nil {
			return zero, err
		}
		if op.Ops.Empty() {
			return zero, ErrNothingToUpdate
		}

		// Update expression and condition share one map pair; the #u and
		// #f prefixes keep their tokens apart.
		names := map[string]string{}
		values := map[string]types.AttributeValue{}
		updateExpr, err := expr.Update(op.Ops, names, values)
		if err != nil {
			return zero, err
		}

		upd := &types.Update{
			TableName:        aws.String(table),
			Key:              key,
			UpdateExpression: aws.String(updateExpr),
		}
		if err := attachCondition(op.Conditions, op.ConditionExpr, names, values,
			&upd.ConditionExpression, &upd.ExpressionAttributeNames, &upd.ExpressionAttributeValues); err != nil {
			return zero, err
		}
		if upd.ExpressionAttributeNames == nil && len(names) > 0 {
			upd.ExpressionAttributeNames = names
		}
		if upd.ExpressionAttributeValues == nil && len(values) > 0 {
			upd.ExpressionAttributeValues = values
		}
		return types.TransactWriteItem{Update: upd}, nil

	default:
		op := item.ConditionCheck
		table, err := c.resolveTable(op.TableName)
		if err != nil {
			return zero, err
		}
		pkName, skName := keyNames(op.PKName, op.SKName)
		key, err := op.Key.marshal(pkName, skName)
		if err != nil {
			return zero, err
		}
		check := &types.ConditionCheck{TableName: aws.String(table), Key: key}
		if err := attachCondition(op.Conditions, op.ConditionExpr, nil, nil,
			&check.ConditionExpression, &check.ExpressionAttributeNames, &check.ExpressionAttributeValues); err != nil {
			return zero, err
		}
		if check.ConditionExpression == nil {
			return zero, fmt.Errorf("%w: condition check requires a condition", ErrBadTransactItem)
		}
		return types.TransactWriteItem{ConditionCheck: check}, nil
	}
}

// attachCondition compiles typed clauses (and/or a raw expression
// string) and sets the expression and its maps on the destination
// fields. Existing maps are reused so condition tokens join the update
// compiler's tokens in one request.
func attachCondition(clauses []expr.Clause, raw string,
	names map[string]string, values map[string]types.AttributeValue,
	exprDest **string, namesDest *map[string]string, valuesDest *map[string]types.AttributeValue) error {

	if len(clauses) == 0 && raw == "" {
		return nil
	}
	if names == nil {
		names = map[string]string{}
	}
	if values == nil {
		values = map[string]types.AttributeValue{}
	}

	cond, err := expr.Filter(clauses, names, values)
	if err != nil {
		return err
	}
	if raw != "" {
		if cond == "" {
			cond = raw
		} else {
			cond = cond + " AND " + raw
		}
	}

	*exprDest = aws.String(cond)
	if len(names) > 0 {
		*namesDest = names
	}
	if len(values) > 0 {
		*valuesDest = values
	}
	return nil
}

// mapCancellation surfaces a transaction canceled by a failed condition
// as ErrConditionFailed, identifying the first offending item.
func mapCancellation(err error) error {
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return fmt.Errorf("transact item %d: %w", i, ErrConditionFailed)
			}
		}
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}
