package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-auth/internal/domain"
)

// VerificationRepo keeps at most one code per email. PK: email.
// The ttl attribute lets DynamoDB expire rows on its own; DeleteExpired covers the lag.
type VerificationRepo struct{ table }

func NewVerificationRepo(client API, tableName string, timeout time.Duration) *VerificationRepo {
	return &VerificationRepo{table{client: client, name: tableName, timeout: timeout}}
}

// Put replaces any outstanding code for the same email.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.name),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) GetByEmail(ctx context.Context, email string) (*domain.VerificationCode, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.name),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code: %w", domain.ErrNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// MarkUsed flips used to true only if the stored row still holds code and is unused.
// Any other state yields ErrConflict.
func (r *VerificationRepo) MarkUsed(ctx context.Context, email, code string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.name),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("SET #used = :t"),
		ConditionExpression: aws.String("#used = :f AND #code = :c"),
		ExpressionAttributeNames: map[string]string{
			"#used": fieldUsed,
			"#code": fieldCode,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("mark code used: %w", domain.ErrConflict)
	}
	return err
}

// DeleteExpired removes codes whose ttl is before now. Each delete re-checks the
// ttl so a code re-issued after the scan is left alone. The store timeout bounds
// each page and each delete, not the whole sweep.
func (r *VerificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.name),
		FilterExpression:          aws.String("#ttl < :now"),
		ProjectionExpression:      aws.String("#pk"),
		ExpressionAttributeNames:  map[string]string{"#ttl": fieldTTL, "#pk": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": cutoff},
	})

	deleted := 0
	for p.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		page, err := r.nextPage(ctx, p)
		if err != nil {
			return deleted, err
		}
		for _, item := range page.Items {
			err := r.deleteIfExpired(ctx, item[fieldEmail], cutoff)
			switch {
			case isConditionFailed(err):
				continue
			case err != nil:
				slog.Warn("could not delete expired code", "table", r.name, "err", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

func (r *VerificationRepo) nextPage(ctx context.Context, p *dynamodb.ScanPaginator) (*dynamodb.ScanOutput, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return p.NextPage(ctx)
}

func (r *VerificationRepo) deleteIfExpired(ctx context.Context, key types.AttributeValue, cutoff types.AttributeValue) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.name),
		Key:                       map[string]types.AttributeValue{fieldEmail: key},
		ConditionExpression:       aws.String("#ttl < :now"),
		ExpressionAttributeNames:  map[string]string{"#ttl": fieldTTL},
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": cutoff},
	})
	return err
}
