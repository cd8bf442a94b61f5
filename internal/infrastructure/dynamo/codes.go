package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stayhub/stayhub-api/internal/domain"
)

// CodeRepo is the durable verification-code store backed by a DynamoDB
// table keyed by email. The issued_expiry attribute doubles as the TTL.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("code for %s: %w", email, domain.ErrNotFound)
	}
	var c domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Put unconditionally overwrites any existing entry for the email.
func (r *CodeRepo) Put(ctx context.Context, email string, c *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	item["email"] = &types.AttributeValueMemberS{Value: email}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// CompareAndSwap replaces the entry only while it still equals prev, so a
// concurrent reissue or verify can't be silently overwritten. A failed
// condition surfaces as domain.ErrConflict.
func (r *CodeRepo) CompareAndSwap(ctx context.Context, email string, prev, next *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	item["email"] = &types.AttributeValueMemberS{Value: email}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("code = :pc AND issued_expiry = :pe AND verified = :pv"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pc": &types.AttributeValueMemberS{Value: prev.Code},
			":pe": &types.AttributeValueMemberN{Value: strconv.FormatInt(prev.IssuedExpiry, 10)},
			":pv": &types.AttributeValueMemberBOOL{Value: prev.Verified},
		},
	})
	var ccfe *types.ConditionalCheckFailedException
	if errors.As(err, &ccfe) {
		return fmt.Errorf("code for %s changed concurrently: %w", email, domain.ErrConflict)
	}
	return err
}

func (r *CodeRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	return err
}
