package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Pinger reports whether every table is reachable.
type Pinger struct {
	client API
	tables []string
}

func NewPinger(client API, tables ...string) *Pinger {
	return &Pinger{client: client, tables: tables}
}

func (p *Pinger) Ping(ctx context.Context) error {
	for _, t := range p.tables {
		if _, err := p.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t)}); err != nil {
			return fmt.Errorf("describe %s: %w", t, err)
		}
	}
	return nil
}
