package expr

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyCondition compiles a partition key value and optional sort-key
// condition into a key condition expression. The partition key always
// binds to the fixed #pk/:pk tokens; the sort key to #sk with :sk
// (or :skFrom/:skTo for a range).
func KeyCondition(pkName string, pkValue any, skName string, sk *SortKeyCondition,
	names map[string]string, values map[string]types.AttributeValue) (string, error) {

	names["#pk"] = pkName
	av, err := attributevalue.Marshal(pkValue)
	if err != nil {
		return "", fmt.Errorf("marshal partition key value: %w", err)
	}
	values[":pk"] = av

	if sk == nil {
		return "#pk = :pk", nil
	}

	cond, err := sk.Normalize()
	if err != nil {
		return "", err
	}
	names["#sk"] = skName

	switch cond.Op {
	case OpBetween:
		lo, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return "", fmt.Errorf("marshal sort key lower bound: %w", err)
		}
		hi, err := attributevalue.Marshal(cond.UpperValue)
		if err != nil {
			return "", fmt.Errorf("marshal sort key upper bound: %w", err)
		}
		values[":skFrom"] = lo
		values[":skTo"] = hi
		return "#pk = :pk AND #sk BETWEEN :skFrom AND :skTo", nil

	case OpBeginsWith:
		av, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return "", fmt.Errorf("marshal sort key prefix: %w", err)
		}
		values[":sk"] = av
		return "#pk = :pk AND begins_with(#sk, :sk)", nil

	default:
		av, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return "", fmt.Errorf("marshal sort key value: %w", err)
		}
		values[":sk"] = av
		return fmt.Sprintf("#pk = :pk AND #sk %s :sk", cond.Op), nil
	}
}
