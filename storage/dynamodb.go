package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/domain/user"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoOptions configures OpenDynamoDB.
type DynamoOptions struct {
	Region    string
	Endpoint  string // optional, e.g. a local DynamoDB
	Tables    Tables
	UserIndex string
}

// DynamoStore persists tasks and users in DynamoDB. The tasks table is keyed by
// (taskId, userId) with a global secondary index on userId.
type DynamoStore struct {
	client    DynamoAPI
	tables    Tables
	userIndex string
}

var _ Backend = (*DynamoStore)(nil)

// OpenDynamoDB loads the default AWS configuration for the region and builds a client.
func OpenDynamoDB(ctx context.Context, opts DynamoOptions) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewDynamoStore(client, opts.Tables, opts.UserIndex), nil
}

// NewDynamoStore wraps an existing client.
func NewDynamoStore(client DynamoAPI, tables Tables, userIndex string) *DynamoStore {
	if userIndex == "" {
		userIndex = "userId"
	}
	return &DynamoStore{client: client, tables: tables, userIndex: userIndex}
}

func taskKey(taskID, userID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"taskId": &ddbtypes.AttributeValueMemberS{Value: taskID},
		"userId": &ddbtypes.AttributeValueMemberS{Value: userID},
	}
}

// PutTask writes a new task item.
func (s *DynamoStore) PutTask(ctx context.Context, t *task.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Tasks),
		Item:      item,
	})
	return err
}

// QueryTasksByOwner queries the owner index, following every page.
func (s *DynamoStore) QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Tasks),
		IndexName:                 aws.String(s.userIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	tasks := make([]task.Task, 0)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []task.Task
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
		}
		tasks = append(tasks, page...)
	}
	return tasks, nil
}

// GetTask reads the item by its full key.
func (s *DynamoStore) GetTask(ctx context.Context, taskID, userID string) (*task.Task, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Tasks),
		Key:       taskKey(taskID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, task.ErrTaskNotFound
	}

	var t task.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &t, nil
}

// UpdateTask sets the supplied fields on an existing item and returns all new attributes.
func (s *DynamoStore) UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error) {
	update := expression.Set(expression.Name("updatedAt"), expression.Value(updatedAt))
	if patch.Title != nil {
		update = update.Set(expression.Name("title"), expression.Value(*patch.Title))
	}
	if patch.Description != nil {
		update = update.Set(expression.Name("description"), expression.Value(*patch.Description))
	}
	if patch.Status != nil {
		update = update.Set(expression.Name("status"), expression.Value(string(*patch.Status)))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("taskId"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Tasks),
		Key:                       taskKey(taskID, userID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              ddbtypes.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}

	var t task.Task
	if err := attributevalue.UnmarshalMap(out.Attributes, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &t, nil
}

// DeleteTask removes an existing item.
func (s *DynamoStore) DeleteTask(ctx context.Context, taskID, userID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("taskId"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tables.Tasks),
		Key:                      taskKey(taskID, userID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return task.ErrTaskNotFound
		}
		return err
	}
	return nil
}

// PutUser writes a user profile item.
func (s *DynamoStore) PutUser(ctx context.Context, u *user.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Users),
		Item:      item,
	})
	return err
}

// GetUser reads a user profile item.
func (s *DynamoStore) GetUser(ctx context.Context, userID string) (*user.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key: map[string]ddbtypes.AttributeValue{
			"userId": &ddbtypes.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrUserNotFound
	}

	var u user.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &u, nil
}

// Ping describes the tasks table.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tables.Tasks),
	})
	return err
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() error {
	return nil
}

// Driver returns "dynamodb".
func (s *DynamoStore) Driver() string {
	return DriverDynamoDB
}

func isConditionFailed(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
