package store

import (
	"context"
	"fmt"

	"task-app-realtime/internal/env"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoDBClient struct {
	svc *dynamodb.Client
}

func NewDynamoDBClient() (*DynamoDBClient, error) {
	region := env.Get(env.AWSRegion)
	credOne := env.Get(env.AWSID)
	credTwo := env.Get(env.AWSSecret)
	credThree := env.Get(env.AWSToken)
	endpoint := env.Get(env.DynamoDBEndpoint)

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if credOne != "" && credTwo != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(credOne, credTwo, credThree)),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	clientOpts := []func(*dynamodb.Options){}
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &DynamoDBClient{
		svc: dynamodb.NewFromConfig(cfg, clientOpts...),
	}, nil
}

func (c *DynamoDBClient) GetItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	out interface{},
) error {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	res, err := c.svc.GetItem(ctx, input)
	if err != nil {
		return fmt.Errorf("get item %s: %w", tableName, err)
	}
	if res.Item == nil {
		return ErrNotFound
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}
