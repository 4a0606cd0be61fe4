package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-auth/internal/domain"
)

// AccountRepo stores accounts (PK: email) and a username reservation table
// (PK: username) written in the same transaction.
type AccountRepo struct {
	table
	usernames string
}

func NewAccountRepo(client API, accountsTable, usernamesTable string, timeout time.Duration) *AccountRepo {
	return &AccountRepo{
		table:     table{client: client, name: accountsTable, timeout: timeout},
		usernames: usernamesTable,
	}
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
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
		return nil, fmt.Errorf("account: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.usernames),
		Key:                      strKey(fieldUsername, username),
		ProjectionExpression:     aws.String("#u"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUsername},
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// Create writes the account and its username reservation atomically.
// Returns ErrAccountExists or ErrUsernameTaken when either key is already present.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	reservation, err := attributevalue.MarshalMap(domain.UsernameReservation{Username: a.Username, Email: a.Email})
	if err != nil {
		return fmt.Errorf("marshal username reservation: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.name),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldEmail},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.usernames),
				Item:                     reservation,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUsername},
			}},
		},
	})
	if err == nil {
		return nil
	}
	failed := cancelledBy(err)
	switch {
	case len(failed) > 0 && failed[0]:
		return fmt.Errorf("create account: %w", domain.ErrAccountExists)
	case len(failed) > 1 && failed[1]:
		return fmt.Errorf("create account: %w", domain.ErrUsernameTaken)
	}
	return err
}

// Save overwrites the mutable fields of an existing account. Email and username are never rewritten.
func (r *AccountRepo) Save(ctx context.Context, a *domain.Account) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldVerified:              a.Verified,
		fieldBanned:                a.Banned,
		fieldBannedBy:              a.BannedBy,
		fieldTrustedTokenHash:      a.TrustedTokenHash,
		fieldTrustedTokenExpiresAt: a.TrustedTokenExpiresAt,
		fieldUniversityDomain:      a.UniversityDomain,
		fieldUpdatedAt:             a.UpdatedAt,
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldEmail

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.name),
		Key:                       strKey(fieldEmail, a.Email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("save account: %w", domain.ErrNotFound)
	}
	return err
}
