package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

// TokenRepo is the verification token ledger. PK: token.
type TokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTokenRepo(client *dynamodb.Client, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.VerificationToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldToken},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("token collision: %w", domain.ErrConflict)
	}
	return err
}

func (r *TokenRepo) Get(ctx context.Context, tok string) (*domain.VerificationToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldToken, tok),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	var t domain.VerificationToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim marks the token used. Only one concurrent caller can win; the rest
// get domain.ErrConflict.
func (r *TokenRepo) Claim(ctx context.Context, tok string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldUsed: true, fieldUsedAt: at})
	if err != nil {
		return err
	}
	ue.with(map[string]string{"#pk": fieldToken}, map[string]types.AttributeValue{":false": boolAV(false)})
	// #f0 is used (sorted before used_at).
	return r.conditionalUpdate(ctx, tok, ue, "attribute_exists(#pk) AND #f0 = :false",
		fmt.Errorf("token already used: %w", domain.ErrConflict))
}

// Release hands a claimed token back after a failed downstream mutation.
func (r *TokenRepo) Release(ctx context.Context, tok string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldUsed: false})
	if err != nil {
		return err
	}
	ue.Expr += " REMOVE #usedAt"
	ue.with(map[string]string{"#pk": fieldToken, "#usedAt": fieldUsedAt}, nil)
	return r.conditionalUpdate(ctx, tok, ue, "attribute_exists(#pk)",
		fmt.Errorf("token not found: %w", domain.ErrNotFound))
}

// conditionalUpdate returns failErr when cond does not hold.
func (r *TokenRepo) conditionalUpdate(ctx context.Context, tok string, ue *updateExpr, cond string, failErr error) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldToken, tok),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return failErr
	}
	return err
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	keys, err := scanExpiredKeys(ctx, r.client, r.tableName, before.Unix(), fieldToken)
	if err != nil {
		return 0, err
	}
	if err := batchDelete(ctx, r.client, r.tableName, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
