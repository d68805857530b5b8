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

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser queries the user_id-created_at GSI, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}
	out, err := r.client.Query(ctx, in)
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListDueScheduled returns notifications still in `scheduled` whose due time
// is at or before now. Queries the status-scheduled_for GSI; scheduled_for is
// stored RFC3339, so lexicographic range comparison matches time order.
func (r *NotificationRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("status-scheduled_for-index"),
		KeyConditionExpression: aws.String("#s = :scheduled AND scheduled_for <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scheduled": &types.AttributeValueMemberS{Value: string(domain.StatusScheduled)},
			":now":       &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return nil, err
	}
	var due []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &due); err != nil {
		return nil, err
	}
	return due, nil
}

// UpdateIfStatus applies updates only if the row is still in the expected
// status. Every status transition and every pre-dispatch edit goes through
// this compare-and-swap so a scheduler sweep and a concurrent API call can
// never both finalize the same transition. A lost race surfaces as
// domain.ErrStateViolation.
func (r *NotificationRepo) UpdateIfStatus(ctx context.Context, notificationID string, expected domain.Status, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#status"] = "status"
	ue.Values[":expected"] = &types.AttributeValueMemberS{Value: string(expected)}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#status = :expected"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("notification %s no longer %s: %w", notificationID, expected, domain.ErrStateViolation)
		}
		return err
	}
	return nil
}

// CountsByUser aggregates the user's notifications per status.
func (r *NotificationRepo) CountsByUser(ctx context.Context, userID string) (*domain.StatusCounts, error) {
	notifications, err := r.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	counts := &domain.StatusCounts{}
	for _, n := range notifications {
		switch n.Status {
		case domain.StatusDraft:
			counts.Draft++
		case domain.StatusScheduled:
			counts.Scheduled++
		case domain.StatusSending:
			counts.Sending++
		case domain.StatusSent:
			counts.Sent++
		case domain.StatusRead:
			counts.Read++
		case domain.StatusFailed:
			counts.Failed++
		}
		counts.Total++
	}
	return counts, nil
}
