package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/store"
)

func TestCreateTable_Defaults(t *testing.T) {
	var seen *dynamodb.CreateTableInput
	db := &fakeDB{createTable: func(_ context.Context, params *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error) {
		seen = params
		return &dynamodb.CreateTableOutput{}, nil
	}}
	client := store.New(db, store.WithTable("things"))

	if err := client.CreateTable(context.Background(), store.TableSpec{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.BillingMode != types.BillingModePayPerRequest {
		t.Errorf("expected on-demand billing, got %v", seen.BillingMode)
	}
	if len(seen.KeySchema) != 1 || aws.ToString(seen.KeySchema[0].AttributeName) != "pk" {
		t.Errorf("expected partition-only default schema, got %v", seen.KeySchema)
	}
	if seen.AttributeDefinitions[0].AttributeType != types.ScalarAttributeTypeS {
		t.Errorf("expected string key type default, got %v", seen.AttributeDefinitions[0].AttributeType)
	}
}

func TestCreateTable_CompositeKey(t *testing.T) {
	var seen *dynamodb.CreateTableInput
	db := &fakeDB{createTable: func(_ context.Context, params *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error) {
		seen = params
		return &dynamodb.CreateTableOutput{}, nil
	}}
	client := store.New(db, store.WithTable("things"))

	err := client.CreateTable(context.Background(), store.TableSpec{
		PKName: "hash",
		SKName: "ts",
		SKType: types.ScalarAttributeTypeN,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen.KeySchema) != 2 {
		t.Fatalf("expected composite schema, got %v", seen.KeySchema)
	}
	if aws.ToString(seen.KeySchema[1].AttributeName) != "ts" || seen.KeySchema[1].KeyType != types.KeyTypeRange {
		t.Errorf("expected range key 'ts', got %v", seen.KeySchema[1])
	}
	if seen.AttributeDefinitions[1].AttributeType != types.ScalarAttributeTypeN {
		t.Errorf("expected numeric sort key type, got %v", seen.AttributeDefinitions[1].AttributeType)
	}
}

func TestTableExists(t *testing.T) {
	db := &fakeDB{describeTable: func(context.Context, *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
		return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: aws.String("things")}}, nil
	}}
	client := store.New(db, store.WithTable("things"))

	exists, err := client.TableExists(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected table reported existing")
	}
}

func TestTableExists_NotFound(t *testing.T) {
	db := &fakeDB{describeTable: func(context.Context, *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
		return nil, &types.ResourceNotFoundException{}
	}}
	client := store.New(db, store.WithTable("things"))

	exists, err := client.TableExists(context.Background(), "")
	if err != nil {
		t.Fatalf("expected not-found absorbed, got %v", err)
	}
	if exists {
		t.Error("expected table reported missing")
	}
}

func TestTableExists_OtherErrorPropagates(t *testing.T) {
	wantErr := errors.New("access denied")
	db := &fakeDB{describeTable: func(context.Context, *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
		return nil, wantErr
	}}
	client := store.New(db, store.WithTable("things"))

	_, err := client.TableExists(context.Background(), "")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected underlying error, got %v", err)
	}
}

func TestDeleteTable(t *testing.T) {
	var seen *dynamodb.DeleteTableInput
	db := &fakeDB{deleteTable: func(_ context.Context, params *dynamodb.DeleteTableInput) (*dynamodb.DeleteTableOutput, error) {
		seen = params
		return &dynamodb.DeleteTableOutput{}, nil
	}}
	client := store.New(db, store.WithTable("things"))

	if err := client.DeleteTable(context.Background(), "archive"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(seen.TableName) != "archive" {
		t.Errorf("expected per-call table override, got %v", seen.TableName)
	}
}

func TestDescribeTable(t *testing.T) {
	db := &fakeDB{describeTable: func(context.Context, *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
		return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{ItemCount: aws.Int64(42)}}, nil
	}}
	client := store.New(db, store.WithTable("things"))

	desc, err := client.DescribeTable(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToInt64(desc.ItemCount) != 42 {
		t.Errorf("expected description returned, got %+v", desc)
	}
}
