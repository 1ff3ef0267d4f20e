package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"portfolio-backend/internal/domain"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Writer defines the persistence operations consumed by the store gateway.
type Writer interface {
	PutTranscript(ctx context.Context, t domain.Transcript) error
	PutBugTicket(ctx context.Context, t domain.BugTicket) error
	PutRecord(ctx context.Context, data map[string]any) error
}

// Tables maps the logical table names accepted on the wire to the physical
// DynamoDB table names.
type Tables struct {
	ChatLog    string
	BugTickets string
	Records    string
}

// Client wraps the DynamoDB tables backing the store gateway.
type Client struct {
	api    dynamodbAPI
	tables Tables
}

// New creates a new repository Client.
func New(api dynamodbAPI, tables Tables) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tables.ChatLog) == "" ||
		strings.TrimSpace(tables.BugTickets) == "" ||
		strings.TrimSpace(tables.Records) == "" {
		return nil, errors.New("repository: all table names must be set")
	}
	return &Client{api: api, tables: tables}, nil
}

// PutTranscript stores the complete transcript for a session, replacing any
// prior row for the same key. A single PutItem keyed on the session id is a
// native upsert, so two concurrent saves for a new key cannot produce
// duplicate rows; they race last-write-wins on content only.
func (c *Client) PutTranscript(ctx context.Context, t domain.Transcript) error {
	if strings.TrimSpace(t.SessionKey) == "" {
		return errors.New("repository: PutTranscript: session key is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tables.ChatLog),
		Item:      transcriptItem(t),
	})
	if err != nil {
		return fmt.Errorf("repository: PutTranscript: %w", err)
	}
	return nil
}

// PutBugTicket inserts a new bug ticket with a generated id. Tickets are
// immutable, so the write is conditioned on the id not existing.
func (c *Client) PutBugTicket(ctx context.Context, t domain.BugTicket) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tables.BugTickets),
		Item:                ticketItem(t, newRecordID(), time.Now().UTC()),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("repository: PutBugTicket: %w", err)
	}
	return nil
}

// PutRecord upserts an arbitrary record. The key is the record's "timestamp"
// field when one is present, else a generated id (plain insert semantics).
func (c *Client) PutRecord(ctx context.Context, data map[string]any) error {
	if len(data) == 0 {
		return errors.New("repository: PutRecord: data is required")
	}

	item := make(map[string]types.AttributeValue, len(data)+1)
	for k, v := range data {
		av, err := toAttributeValue(v)
		if err != nil {
			return fmt.Errorf("repository: PutRecord field %q: %w", k, err)
		}
		item[k] = av
	}
	item["id"] = &types.AttributeValueMemberS{Value: recordKey(data)}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tables.Records),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: PutRecord: %w", err)
	}
	return nil
}

// recordKey resolves the upsert key for a generic record: conflict-resolve on
// a timestamp field when the caller supplies one.
func recordKey(data map[string]any) string {
	if ts, ok := data["timestamp"].(string); ok && strings.TrimSpace(ts) != "" {
		return ts
	}
	return newRecordID()
}

func transcriptItem(t domain.Transcript) map[string]types.AttributeValue {
	msgs := make([]types.AttributeValue, 0, len(t.Messages))
	for _, m := range t.Messages {
		msgs = append(msgs, &types.AttributeValueMemberM{
			Value: map[string]types.AttributeValue{
				"sender": &types.AttributeValueMemberS{Value: m.Sender},
				"text":   &types.AttributeValueMemberS{Value: m.Text},
			},
		})
	}
	return map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: t.SessionKey},
		"messages":  &types.AttributeValueMemberL{Value: msgs},
		"updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
}

func ticketItem(t domain.BugTicket, id string, createdAt time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: id},
		"title":     &types.AttributeValueMemberS{Value: t.Title},
		"desc":      &types.AttributeValueMemberS{Value: t.Desc},
		"prio":      &types.AttributeValueMemberS{Value: t.Prio},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt.Format(time.RFC3339)},
	}
}

// toAttributeValue converts a JSON-decoded value to a DynamoDB attribute.
// Only the types produced by encoding/json into map[string]any appear here.
func toAttributeValue(v any) (types.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: formatNumber(val)}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(val))
		for k, elem := range val {
			av, err := toAttributeValue(elem)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, 0, len(val))
		for _, elem := range val {
			av, err := toAttributeValue(elem)
			if err != nil {
				return nil, err
			}
			l = append(l, av)
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

var newRecordID = func() string {
	return uuid.NewString()
}
