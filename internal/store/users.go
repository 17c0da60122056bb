package store

import (
	"context"
	"errors"

	"task-app-realtime/internal/jwt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const UsersTable = "Users"

var ErrNotFound = errors.New("store: not found")

// UserItem mirrors the user record owned by the CRUD backend. The realtime
// service only ever reads it to confirm a handshake subject still exists.
type UserItem struct {
	ID      string `dynamodbav:"id" json:"id"`
	Email   string `dynamodbav:"email" json:"email"`
	Name    string `dynamodbav:"name" json:"name"`
	Created string `dynamodbav:"created" json:"created"`
}

type Users struct {
	db *DynamoDBClient
}

func NewUsers(db *DynamoDBClient) *Users {
	return &Users{db: db}
}

func (u *Users) FindUserByID(ctx context.Context, id string) (jwt.Identity, error) {
	var item UserItem
	err := u.db.GetItem(ctx, UsersTable, map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}, &item)
	if err != nil {
		return jwt.Identity{}, err
	}

	return jwt.Identity{
		UserID: item.ID,
		Email:  item.Email,
	}, nil
}
