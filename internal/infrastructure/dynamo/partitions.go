package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/railvoice/railvoice/internal/docstore"
	"github.com/railvoice/railvoice/internal/domain"
)

// PartitionRepo persists partition documents (one item per train or line
// partition) in a single DynamoDB table. It implements docstore.Backend;
// live delivery is the change bus's job, not DynamoDB's.
type PartitionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPartitionRepo(client *dynamodb.Client, tableName string) *PartitionRepo {
	return &PartitionRepo{client: client, tableName: tableName}
}

func (r *PartitionRepo) Read(ctx context.Context, key string) (*docstore.Document, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("partition_key", key),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var doc docstore.Document
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal partition %s: %w", key, err)
	}
	return &doc, nil
}

// WriteMerge sets only the given fields on the partition item, creating the
// item if it does not exist and preserving any other attributes.
func (r *PartitionRepo) WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error {
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("partition_key", key),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *PartitionRepo) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("partition_key", key),
	})
	return err
}
