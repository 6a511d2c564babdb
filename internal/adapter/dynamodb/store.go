package dynamodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/forecast-ingest/internal/domain"
)

// PutItemAPI is the part of the DynamoDB client Store needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
}

// Store writes forecast records to a DynamoDB table.
// It implements pipeline.Store.
type Store struct {
	client PutItemAPI
	table  string
	logger *slog.Logger
}

// NewStore creates a Store for table. The client is shared across calls and
// must be safe for concurrent use (the SDK client is).
func NewStore(client PutItemAPI, table string, logger *slog.Logger) *Store {
	return &Store{client: client, table: table, logger: logger}
}

// Put writes rec as a new item. The write is unconditional: an existing item
// with the same id would be replaced.
func (s *Store) Put(ctx context.Context, rec domain.Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	_, err = s.client.PutItem(ctx, &ddb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item into %s: %w", s.table, err)
	}

	s.logger.Debug("record written", "table", s.table, "record_id", rec.ID)
	return nil
}

// Table returns the target table name.
func (s *Store) Table() string {
	return s.table
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
// A non-empty endpoint overrides the regional endpoint (e.g. DynamoDB Local).
// Every API call is traced as a client span ("DynamoDB.PutItem") through tp;
// a nil tp uses the global provider.
func NewClient(ctx context.Context, region, endpoint string, tp trace.TracerProvider) (*ddb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []otelaws.Option
	if tp != nil {
		opts = append(opts, otelaws.WithTracerProvider(tp))
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions, opts...)

	return ddb.NewFromConfig(cfg, func(o *ddb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
