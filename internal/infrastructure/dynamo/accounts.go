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

// AccountRepo backs the self-hosted identity provider.
// PK: account_id, GSI identifier-index on identifier. Each account is written
// together with a guard item (account_id = "identifier#<identifier>") so the
// identifier is unique even though the GSI is eventually consistent.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Put(ctx context.Context, a *domain.LocalAccount) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	cond := aws.String("attribute_not_exists(#pk)")
	names := map[string]string{"#pk": fieldAccountID}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item: map[string]types.AttributeValue{
					fieldAccountID: &types.AttributeValueMemberS{Value: identifierGuardPrefix + a.Identifier},
					fieldOwner:     &types.AttributeValueMemberS{Value: a.ID},
				},
				ConditionExpression:      cond,
				ExpressionAttributeNames: names,
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      cond,
				ExpressionAttributeNames: names,
			}},
		},
	})
	if isTransactionConflict(err) {
		return fmt.Errorf("account exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *AccountRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.LocalAccount, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexIdentifier),
		KeyConditionExpression:   aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{"#k": fieldIdentifier},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: identifier},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.LocalAccount
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, accountID, hash string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldPasswordHash: hash,
		fieldUpdatedAt:    at,
	})
	if err != nil {
		return err
	}
	ue.with(map[string]string{"#pk": fieldAccountID}, nil)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}
