package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/campus-auth/internal/domain"
)

// UniversityRepo stores seeded universities. PK: domain.
type UniversityRepo struct{ table }

func NewUniversityRepo(client API, tableName string, timeout time.Duration) *UniversityRepo {
	return &UniversityRepo{table{client: client, name: tableName, timeout: timeout}}
}

// List scans the whole table. The catalogue is small reference data.
func (r *UniversityRepo) List(ctx context.Context) ([]domain.University, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []domain.University
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.name)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.University
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (r *UniversityRepo) GetByDomain(ctx context.Context, d string) (*domain.University, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.name),
		Key:       strKey(fieldDomain, d),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("university %s: %w", d, domain.ErrNotFound)
	}
	var u domain.University
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PutIfAbsent inserts u unless its domain is already stored, in which case ErrConflict is returned.
func (r *UniversityRepo) PutIfAbsent(ctx context.Context, u *domain.University) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal university: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.name),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldDomain},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("university %s: %w", u.Domain, domain.ErrConflict)
	}
	return err
}
