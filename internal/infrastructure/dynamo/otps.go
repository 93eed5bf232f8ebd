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

// OTPRepo is the OTP ledger.
// PK: identifier, SK: otp_id (ULID, so SK order is issue order).
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListUnverified returns unverified records for identifier, newest first.
// No Limit is set: DynamoDB applies Limit before the filter. Reads are
// strongly consistent so a code issued a moment ago is always seen.
func (r *OTPRepo) ListUnverified(ctx context.Context, identifier string) ([]domain.OTPRecord, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String("#pk = :pk"),
		FilterExpression:       aws.String("#verified = :false"),
		ExpressionAttributeNames: map[string]string{
			"#pk":       fieldIdentifier,
			"#verified": fieldVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":    &types.AttributeValueMemberS{Value: identifier},
			":false": boolAV(false),
		},
		ScanIndexForward: aws.Bool(false),
	})
	var out []domain.OTPRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query otps: %w", err)
		}
		var recs []domain.OTPRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal otps: %w", err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// MarkVerified flips verified only if the record exists and is still unverified.
func (r *OTPRepo) MarkVerified(ctx context.Context, identifier, otpID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldVerified: true})
	if err != nil {
		return err
	}
	ue.with(map[string]string{"#sk": fieldOTPID}, map[string]types.AttributeValue{":false": boolAV(false)})
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldIdentifier, identifier, fieldOTPID, otpID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#sk) AND #f0 = :false"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp already consumed: %w", domain.ErrConflict)
	}
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, identifier, otpID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldIdentifier, identifier, fieldOTPID, otpID),
	})
	return err
}

func (r *OTPRepo) DeleteUnverified(ctx context.Context, identifier string) error {
	recs, err := r.ListUnverified(ctx, identifier)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(recs))
	for _, rec := range recs {
		keys = append(keys, compositeKey(fieldIdentifier, rec.Identifier, fieldOTPID, rec.ID))
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

// DeleteExpired removes records whose ttl is before the cutoff, verified or
// not, and reports how many were removed. DynamoDB TTL eventually does the
// same; this makes retention deterministic.
func (r *OTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	keys, err := scanExpiredKeys(ctx, r.client, r.tableName, before.Unix(), fieldIdentifier, fieldOTPID)
	if err != nil {
		return 0, err
	}
	if err := batchDelete(ctx, r.client, r.tableName, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
