package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"company-chatbot/internal/domain"
)

const (
	pkPrefixDay = "DAY#"
	skPrefixEx  = "EX#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by ExchangeLog.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ExchangeLog appends completed chat exchanges to a DynamoDB table. Items are
// partitioned by UTC day and sorted by creation time.
type ExchangeLog struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates an ExchangeLog writing to tableName.
func New(api dynamodbAPI, tableName string) (*ExchangeLog, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &ExchangeLog{api: api, tableName: tableName, now: time.Now}, nil
}

func dayPK(ts time.Time) string {
	return pkPrefixDay + ts.UTC().Format("2006-01-02")
}

func exchangeSK(ts time.Time, id string) string {
	return skPrefixEx + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

// RecordExchange stores ex. Missing ID, CreatedAt and TTL are filled in.
func (l *ExchangeLog) RecordExchange(ctx context.Context, ex domain.Exchange) error {
	now := l.now().UTC()
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt == "" {
		ex.CreatedAt = now.Format(time.RFC3339)
	}
	if ex.TTL == 0 {
		ex.TTL = now.Add(ttlDuration).Unix()
	}

	_, err := l.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                exchangeItem(now, ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordExchange: %w", err)
	}
	return nil
}

func exchangeItem(ts time.Time, ex domain.Exchange) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":                  &types.AttributeValueMemberS{Value: dayPK(ts)},
		"SK":                  &types.AttributeValueMemberS{Value: exchangeSK(ts, ex.ID)},
		"exchangeId":          &types.AttributeValueMemberS{Value: ex.ID},
		"message":             &types.AttributeValueMemberS{Value: ex.Message},
		"reply":               &types.AttributeValueMemberS{Value: ex.Reply},
		"includedCompany":     &types.AttributeValueMemberBOOL{Value: ex.IncludedCompany},
		"attempts":            &types.AttributeValueMemberN{Value: strconv.Itoa(ex.Attempts)},
		"usedMaxOutputTokens": &types.AttributeValueMemberN{Value: strconv.Itoa(ex.UsedMaxOutputTokens)},
		"createdAt":           &types.AttributeValueMemberS{Value: ex.CreatedAt},
		"ttl":                 &types.AttributeValueMemberN{Value: strconv.FormatInt(ex.TTL, 10)},
	}
}
