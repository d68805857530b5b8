package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/notifica-api/internal/domain"
)

// auditAPI is the slice of the DynamoDB client the audit store uses.
type auditAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// AuditLogRepo provides typed DynamoDB operations for the audit_logs table.
// Rows are only ever inserted; there is no update or delete path.
type AuditLogRepo struct {
	client    auditAPI
	tableName string
}

func NewAuditLogRepo(client auditAPI, tableName string) *AuditLogRepo {
	return &AuditLogRepo{client: client, tableName: tableName}
}

// Append inserts an entry. The attribute_not_exists condition makes the write
// strictly insert-only: an id collision can never overwrite history.
func (r *AuditLogRepo) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(audit_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("audit id %s already exists: %w", e.AuditID, domain.ErrConflict)
		}
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// LatestForEntity returns the newest entry for the given subject, or nil when
// the subject has no history yet. Used to extend the per-entity hash chain.
func (r *AuditLogRepo) LatestForEntity(ctx context.Context, entityKey string) (*domain.AuditLogEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("entity_key-audit_id-index"),
		KeyConditionExpression: aws.String("entity_key = :ek"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ek": &types.AttributeValueMemberS{Value: entityKey},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var e domain.AuditLogEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List reads entries matching the filter in append order. Entries are keyed
// by monotonic ULIDs, so ascending id order is exactly the order the writes
// were applied.
func (r *AuditLogRepo) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	in := &dynamodb.QueryInput{
		TableName:        aws.String(r.tableName),
		ScanIndexForward: aws.Bool(true),
	}

	values := map[string]types.AttributeValue{}
	switch {
	case f.EntityType != "" && f.EntityID != "":
		in.IndexName = aws.String("entity_key-audit_id-index")
		in.KeyConditionExpression = aws.String("entity_key = :k")
		values[":k"] = &types.AttributeValueMemberS{Value: f.EntityType + "#" + f.EntityID}
	case f.ActorID != "":
		in.IndexName = aws.String("actor_id-audit_id-index")
		in.KeyConditionExpression = aws.String("actor_id = :k")
		values[":k"] = &types.AttributeValueMemberS{Value: f.ActorID}
	default:
		return nil, fmt.Errorf("audit filter needs an entity or an actor: %w", domain.ErrBadRequest)
	}

	if f.From != nil || f.To != nil {
		from, to := time.Time{}, time.Now().UTC()
		if f.From != nil {
			from = f.From.UTC()
		}
		if f.To != nil {
			to = f.To.UTC()
		}
		in.FilterExpression = aws.String("created_at BETWEEN :from AND :to")
		values[":from"] = &types.AttributeValueMemberS{Value: from.Format(time.RFC3339Nano)}
		values[":to"] = &types.AttributeValueMemberS{Value: to.Format(time.RFC3339Nano)}
	}
	in.ExpressionAttributeValues = values

	// The time range is a filter expression, which DynamoDB applies after
	// the per-page read limit. Counting matching entries therefore needs a
	// pagination loop; pushing f.Limit down as a query limit would cap the
	// items examined, not the items matched.
	var entries []domain.AuditLogEntry
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		var page []domain.AuditLogEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if f.Limit > 0 && len(entries) >= f.Limit {
			return entries[:f.Limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
